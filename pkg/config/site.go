package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mdx-wiki/pkg/models"
)

const SiteFileName = "wiki.yml"

var defaultStrings = map[string]models.UIStrings{
	"en": {
		CreatedAt:      "Created at",
		UpdatedAt:      "Updated at",
		OtherLanguages: "Other languages",
		Edit:           "Edit",
		History:        "History",
		Footnotes:      "Footnotes",
		NotFound:       "Entry not found",
	},
	"ko": {
		CreatedAt:      "작성",
		UpdatedAt:      "수정",
		OtherLanguages: "다른 언어",
		Edit:           "편집",
		History:        "역사",
		Footnotes:      "각주",
		NotFound:       "문서를 찾을 수 없습니다",
	},
}

// Site is the loaded wiki.yml, or an empty config when the file is absent.
var Site = &models.SiteConfig{}

// LoadSite reads wiki.yml from RepoPath and applies its overrides to the
// package settings. A missing file is not an error.
func LoadSite() error {
	cfg, err := ReadSiteConfig(filepath.Join(RepoPath, SiteFileName))
	if err != nil {
		return err
	}
	Site = cfg
	if len(cfg.Languages) > 0 && len(ParseList(os.Getenv("LANGUAGES"))) == 0 {
		Languages = cfg.Languages
	}
	if cfg.LandingEntry != "" && os.Getenv("LANDING_ENTRY") == "" {
		LandingEntry = cfg.LandingEntry
	}
	return nil
}

func ReadSiteConfig(path string) (*models.SiteConfig, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.SiteConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg models.SiteConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Strings returns the UI labels for lang. Missing labels fall back to the
// built-in table for lang, then to English.
func Strings(lang string) models.UIStrings {
	s := Site.Strings[lang]
	if d, ok := defaultStrings[lang]; ok {
		s = s.Merge(d)
	}
	if fallback, ok := Site.Strings["en"]; ok {
		s = s.Merge(fallback)
	}
	return s.Merge(defaultStrings["en"])
}
