package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	RepoPath = "."

	// Content tree and build output, relative to RepoPath unless absolute.
	ContentDir      = "data/wiki"
	AssetsDir       = "data/assets"
	OutputDir       = "mdx"
	PublicAssetsDir = "public/assets"
	ContentExt      = ".mdx"
	IndexFileName   = "entries.json"

	// Page resolution
	LandingEntry = "main_page"
	Languages    = []string{"en", "ko"}

	// External links built from an article's originalPath.
	EditURLPrefix    = "https://github.com/devonnuri/devonnuri-wiki/edit/main/"
	HistoryURLPrefix = "https://github.com/devonnuri/devonnuri-wiki/commits/main/"

	DisplayLocation = time.Local

	// History lookups run in parallel up to this limit.
	HistoryConcurrency = 20

	// Logging
	LogLevel  = "info"
	LogPretty = false

	Port = "3000"

	// Git settings
	GitBranch = "main"
	GitRemote = "origin"

	SessionSecret = ""
)

var OauthConf *oauth2.Config

func Init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}

	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	Port = getEnv("PORT", Port)
	redirectURL := getEnv("GITHUB_REDIRECT_URL", GetAppURL()+"/auth/callback")

	RepoPath = getEnv("REPO_PATH", ".")
	ContentDir = getEnv("CONTENT_DIR", ContentDir)
	AssetsDir = getEnv("ASSETS_DIR", AssetsDir)
	OutputDir = getEnv("OUTPUT_DIR", OutputDir)
	PublicAssetsDir = getEnv("PUBLIC_ASSETS_DIR", PublicAssetsDir)
	ContentExt = NormalizeExt(getEnv("CONTENT_EXT", ContentExt))

	LandingEntry = getEnv("LANDING_ENTRY", LandingEntry)
	if langs := ParseList(os.Getenv("LANGUAGES")); len(langs) > 0 {
		Languages = langs
	}

	EditURLPrefix = getEnv("EDIT_URL_PREFIX", EditURLPrefix)
	HistoryURLPrefix = getEnv("HISTORY_URL_PREFIX", HistoryURLPrefix)

	if tz := os.Getenv("DISPLAY_TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			DisplayLocation = loc
		} else {
			fmt.Printf("Ignoring DISPLAY_TZ=%q: %v\n", tz, err)
		}
	}

	if hc := os.Getenv("HISTORY_CONCURRENCY"); hc != "" {
		if val, err := strconv.Atoi(hc); err == nil && val > 0 {
			HistoryConcurrency = val
		}
	}

	LogLevel = getEnv("LOG_LEVEL", LogLevel)
	if lp := os.Getenv("LOG_PRETTY"); lp != "" {
		LogPretty, _ = strconv.ParseBool(lp)
	}

	GitBranch = getEnv("GIT_BRANCH", "main")
	GitRemote = getEnv("GIT_REMOTE", "origin")

	SessionSecret = os.Getenv("SESSION_SECRET")

	OauthConf = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
}

func GetAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:" + Port
	}
	return appURL
}

// Resolve joins p onto RepoPath unless it is already absolute.
func Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(RepoPath, p)
}

// IndexPath is the location of the entry index artifact.
func IndexPath() string {
	return filepath.Join(Resolve(OutputDir), IndexFileName)
}

// AdminEnabled reports whether the OAuth-protected admin routes can be served.
func AdminEnabled() bool {
	return OauthConf != nil && OauthConf.ClientID != "" && SessionSecret != ""
}

func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ".mdx"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
