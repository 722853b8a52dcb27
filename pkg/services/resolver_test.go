package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/models"
)

func strPtr(s string) *string { return &s }

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()

	idx := models.EntryIndex{
		"foo": {
			ID:              "foo",
			Parents:         []string{"topics"},
			DefaultLanguage: "en",
			Articles: map[string]*models.Article{
				"en": {Title: "Foo", Language: "en", Default: true, OriginalPath: "data/wiki/topics/foo.en.mdx",
					CreatedAt: strPtr("2024-01-02T03:04:05Z"), UpdatedAt: strPtr("2024-03-04T05:06:07Z")},
				"ko": {Title: "푸", Subtitle: "부제", Language: "ko", OriginalPath: "data/wiki/topics/foo.ko.mdx"},
			},
		},
		"broken": {
			ID:              "broken",
			Parents:         []string{},
			DefaultLanguage: "en",
			Articles: map[string]*models.Article{
				"ko": {Title: "Broken", Language: "ko"},
			},
		},
		"nobody": {
			ID:              "nobody",
			Parents:         []string{},
			DefaultLanguage: "en",
			Articles: map[string]*models.Article{
				"en": {Title: "No body", Language: "en"},
			},
		},
	}
	if err := WriteIndex(filepath.Join(dir, "entries.json"), idx); err != nil {
		t.Fatal(err)
	}
	writeContent(t, dir, "foo.en.mdx", "---\ntitle: Foo\n---\n\nHello *world*.[^1]\n\n[^1]: A note.\n")
	writeContent(t, dir, "foo.ko.mdx", "---\ntitle: 푸\n---\n\n안녕\n")
	writeContent(t, dir, "broken.ko.mdx", "---\ntitle: Broken\n---\nbody\n")

	store, err := OpenIndexStore(dir, "entries.json", ".mdx")
	if err != nil {
		t.Fatalf("OpenIndexStore() error = %v", err)
	}

	r := NewResolver(ResolverOptions{
		Store:            store,
		LandingEntry:     "main_page",
		EditURLPrefix:    "https://example.com/edit/main/",
		HistoryURLPrefix: "https://example.com/commits/main/",
		Location:         time.UTC,
		Strings: func(lang string) models.UIStrings {
			if lang == "ko" {
				return models.UIStrings{Footnotes: "각주"}
			}
			return models.UIStrings{Footnotes: "Footnotes"}
		},
		Logger: logger.Nop(),
	})
	return r, dir
}

func TestResolveLanding(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "ko", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolveRedirect || res.Location != "/ko/main_page" {
		t.Fatalf("Resolve(ko, \"\") = %+v", res)
	}
}

func TestResolveUnknownEntry(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "en", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolveNotFound {
		t.Fatalf("kind = %v, want not_found", res.Kind)
	}
}

func TestResolveFallsBackToDefaultLanguage(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "fr", "foo")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolveRedirect || res.Location != "/en/foo" {
		t.Fatalf("Resolve(fr, foo) = %+v, want redirect to /en/foo", res)
	}
}

func TestResolveInconsistentDefault(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "en", "broken")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolveNotFound {
		t.Fatalf("kind = %v, want not_found rather than a redirect loop", res.Kind)
	}
}

func TestResolveRendersRequestedLanguage(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "ko", "foo")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResolveRender {
		t.Fatalf("kind = %v, want render", res.Kind)
	}
	p := res.Page
	if p.Title != "푸" || p.Subtitle != "부제" {
		t.Errorf("title/subtitle = %q/%q", p.Title, p.Subtitle)
	}
	if !reflect.DeepEqual(p.OtherLanguages, []string{"en"}) {
		t.Errorf("other languages = %v, want [en]", p.OtherLanguages)
	}
	if p.CreatedAt != "" || p.UpdatedAt != "" {
		t.Errorf("absent timestamps rendered: %q %q", p.CreatedAt, p.UpdatedAt)
	}
	if p.EditURL != "https://example.com/edit/main/data/wiki/topics/foo.ko.mdx" {
		t.Errorf("edit url = %q", p.EditURL)
	}
	if p.HistoryURL != "https://example.com/commits/main/data/wiki/topics/foo.ko.mdx" {
		t.Errorf("history url = %q", p.HistoryURL)
	}
	if !strings.Contains(p.Body, "안녕") || strings.Contains(p.Body, "title:") {
		t.Errorf("body = %q", p.Body)
	}
}

func TestResolveFormatsTimestampsAndFootnotes(t *testing.T) {
	r, _ := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "en", "foo")
	if err != nil {
		t.Fatal(err)
	}
	p := res.Page
	if p.CreatedAt != "2024-01-02 03:04:05" {
		t.Errorf("created = %q", p.CreatedAt)
	}
	if p.UpdatedAt != "2024-03-04 05:06:07" {
		t.Errorf("updated = %q", p.UpdatedAt)
	}
	if !strings.Contains(p.Body, ">Footnotes</h2>") {
		t.Errorf("footnote label missing: %s", p.Body)
	}
	if !strings.Contains(p.Body, "<em>world</em>") {
		t.Errorf("markdown not rendered: %s", p.Body)
	}
}

func TestResolveMissingBody(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.Resolve(context.Background(), "en", "nobody")
	if !errors.Is(err, ErrContentMissing) {
		t.Fatalf("error = %v, want ErrContentMissing", err)
	}
}

func TestResolveCachesRenderedBody(t *testing.T) {
	r, dir := newTestResolver(t)
	ctx := context.Background()
	if _, err := r.Resolve(ctx, "ko", "foo"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "foo.ko.mdx")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, "ko", "foo"); err != nil {
		t.Fatalf("cached render not used: %v", err)
	}

	if err := r.opts.Store.Reload(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, "ko", "foo"); !errors.Is(err, ErrContentMissing) {
		t.Fatalf("after reload error = %v, want ErrContentMissing", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	tests := []struct {
		name string
		raw  *string
		loc  *time.Location
		want string
	}{
		{name: "absent", raw: nil, loc: time.UTC, want: ""},
		{name: "empty", raw: strPtr(""), loc: time.UTC, want: ""},
		{name: "invalid", raw: strPtr("yesterday"), loc: time.UTC, want: ""},
		{name: "utc", raw: strPtr("2024-01-02T03:04:05Z"), loc: time.UTC, want: "2024-01-02 03:04:05"},
		{name: "converted", raw: strPtr("2024-01-02T03:04:05Z"), loc: kst, want: "2024-01-02 12:04:05"},
		{name: "offset", raw: strPtr("2024-01-02T03:04:05+09:00"), loc: time.UTC, want: "2024-01-01 18:04:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTimestamp(tt.raw, tt.loc)
			if got != tt.want {
				t.Fatalf("FormatTimestamp() = %q, want %q", got, tt.want)
			}
			if got != "" {
				if _, err := time.Parse(DisplayTimeFormat, got); err != nil {
					t.Fatalf("formatted value does not parse back: %v", err)
				}
			}
		})
	}
}
