package services

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const footnotesOpen = `<div class="footnotes" role="doc-endnotes">`

// MarkdownRenderer turns article bodies into HTML with GFM tables,
// footnotes and TeX math. It is safe for concurrent use.
type MarkdownRenderer struct {
	engine goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		engine: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				mathjax.MathJax,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// MDX bodies carry inline JSX/HTML components.
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Render converts a content file to HTML. The metadata block is dropped and
// the footnote section is headed by footnoteLabel.
func (r *MarkdownRenderer) Render(source []byte, footnoteLabel string) (string, error) {
	body := StripFrontMatter(source)

	var buf bytes.Buffer
	if err := r.engine.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return labelFootnotes(buf.String(), footnoteLabel), nil
}

func labelFootnotes(out, label string) string {
	if label == "" || !strings.Contains(out, footnotesOpen) {
		return out
	}
	heading := `<h2 class="sr-only" id="footnote-label">` + html.EscapeString(label) + `</h2>`
	return strings.Replace(out, footnotesOpen, footnotesOpen+"\n"+heading, 1)
}
