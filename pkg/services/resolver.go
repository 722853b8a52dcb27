package services

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/metrics"
	"mdx-wiki/pkg/models"
)

// DisplayTimeFormat is the layout of created/updated lines on a page.
const DisplayTimeFormat = "2006-01-02 15:04:05"

type ResolutionKind int

const (
	ResolveRender ResolutionKind = iota
	ResolveRedirect
	ResolveNotFound
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolveRender:
		return metrics.OutcomeRender
	case ResolveRedirect:
		return metrics.OutcomeRedirect
	default:
		return metrics.OutcomeNotFound
	}
}

// Page is everything the page template needs for one article.
type Page struct {
	EntryID        string
	Language       string
	Parents        []string
	Title          string
	Subtitle       string
	CreatedAt      string // formatted; empty when unknown
	UpdatedAt      string
	OtherLanguages []string
	EditURL        string
	HistoryURL     string
	Body           string // rendered HTML
	Strings        models.UIStrings
}

// Resolution is the outcome of resolving a (language, entry) request.
type Resolution struct {
	Kind     ResolutionKind
	Location string // set for ResolveRedirect
	Page     *Page  // set for ResolveRender
}

type ResolverOptions struct {
	Store            *IndexStore
	Markdown         *MarkdownRenderer
	LandingEntry     string
	EditURLPrefix    string
	HistoryURLPrefix string
	Location         *time.Location
	Strings          func(lang string) models.UIStrings
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// Resolver maps request paths onto localized articles. It holds no per-request
// state and is safe for concurrent use.
type Resolver struct {
	opts ResolverOptions
	log  zerolog.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Markdown == nil {
		opts.Markdown = NewMarkdownRenderer()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.LandingEntry == "" {
		opts.LandingEntry = "main_page"
	}
	if opts.Strings == nil {
		opts.Strings = func(string) models.UIStrings { return models.UIStrings{} }
	}
	return &Resolver{opts: opts, log: logger.Component(opts.Logger, "resolver")}
}

// EntryPath is the URL of an entry in a language.
func EntryPath(lang, id string) string {
	return "/" + url.PathEscape(lang) + "/" + url.PathEscape(id)
}

// Resolve decides what to serve for /<lang>/<id>. The returned error is set
// only for index/content-store inconsistencies and cancellation.
func (r *Resolver) Resolve(ctx context.Context, lang, id string) (res *Resolution, err error) {
	defer func() {
		switch {
		case err != nil:
			r.opts.Metrics.RecordResolution(metrics.OutcomeError)
		case res != nil:
			r.opts.Metrics.RecordResolution(res.Kind.String())
		}
	}()

	if id == "" {
		return redirect(EntryPath(lang, r.opts.LandingEntry)), nil
	}

	entry, ok := r.opts.Store.Lookup(id)
	if !ok {
		return &Resolution{Kind: ResolveNotFound}, nil
	}

	article, ok := entry.Articles[lang]
	if !ok {
		if entry.DefaultLanguage != lang {
			return redirect(EntryPath(entry.DefaultLanguage, id)), nil
		}
		r.log.Error().
			Str("entry", id).
			Str("language", lang).
			Msg("index inconsistent: default language has no article")
		return &Resolution{Kind: ResolveNotFound}, nil
	}

	page, err := r.render(ctx, entry, article, lang)
	if err != nil {
		return nil, err
	}
	return &Resolution{Kind: ResolveRender, Page: page}, nil
}

func (r *Resolver) render(ctx context.Context, entry *models.Entry, article *models.Article, lang string) (*Page, error) {
	start := time.Now()
	defer r.opts.Metrics.ObserveRender(start)

	labels := r.opts.Strings(lang)
	body, err := r.opts.Store.CachedRender(entry.ID+"."+lang, func() (string, error) {
		source, err := r.opts.Store.Body(ctx, entry.ID, lang)
		if err != nil {
			return "", err
		}
		return r.opts.Markdown.Render(source, labels.Footnotes)
	})
	if err != nil {
		return nil, err
	}

	return &Page{
		EntryID:        entry.ID,
		Language:       lang,
		Parents:        entry.Parents,
		Title:          article.Title,
		Subtitle:       article.Subtitle,
		CreatedAt:      FormatTimestamp(article.CreatedAt, r.opts.Location),
		UpdatedAt:      FormatTimestamp(article.UpdatedAt, r.opts.Location),
		OtherLanguages: entry.Languages(lang),
		EditURL:        r.opts.EditURLPrefix + article.OriginalPath,
		HistoryURL:     r.opts.HistoryURLPrefix + article.OriginalPath,
		Body:           body,
		Strings:        labels,
	}, nil
}

// FormatTimestamp renders an ISO-8601 timestamp for display in loc. Absent or
// unparsable values yield "".
func FormatTimestamp(raw *string, loc *time.Location) string {
	if raw == nil || *raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayTimeFormat)
}

func redirect(location string) *Resolution {
	return &Resolution{Kind: ResolveRedirect, Location: location}
}
