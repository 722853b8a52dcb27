package config

import (
	"os"
	"path/filepath"
	"testing"

	"mdx-wiki/pkg/models"
)

func TestReadSiteConfigMissingFile(t *testing.T) {
	cfg, err := ReadSiteConfig(filepath.Join(t.TempDir(), SiteFileName))
	if err != nil {
		t.Fatalf("ReadSiteConfig() error = %v", err)
	}
	if cfg == nil || len(cfg.Languages) != 0 {
		t.Fatalf("ReadSiteConfig() = %+v, want empty config", cfg)
	}
}

func TestReadSiteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), SiteFileName)
	body := `name: Test Wiki
languages: [en, ja]
landing_entry: home
strings:
  ja:
    edit: 編集
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadSiteConfig(path)
	if err != nil {
		t.Fatalf("ReadSiteConfig() error = %v", err)
	}
	if cfg.LandingEntry != "home" || len(cfg.Languages) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Strings["ja"].Edit != "編集" {
		t.Fatalf("strings not decoded: %+v", cfg.Strings)
	}
}

func TestStringsFallback(t *testing.T) {
	prev := Site
	t.Cleanup(func() { Site = prev })

	Site = &models.SiteConfig{
		Strings: map[string]models.UIStrings{"ja": {Edit: "編集"}},
	}

	ja := Strings("ja")
	if ja.Edit != "編集" {
		t.Fatalf("Edit = %q, want override", ja.Edit)
	}
	if ja.History != "History" {
		t.Fatalf("History = %q, want English fallback", ja.History)
	}

	ko := Strings("ko")
	if ko.Footnotes != "각주" {
		t.Fatalf("Footnotes = %q, want built-in Korean", ko.Footnotes)
	}
}

func TestNormalizeExt(t *testing.T) {
	tests := map[string]string{
		"":      ".mdx",
		"md":    ".md",
		".mdx":  ".mdx",
		" .md ": ".md",
	}
	for in, want := range tests {
		if got := NormalizeExt(in); got != want {
			t.Fatalf("NormalizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
