package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mdx-wiki/pkg/models"
)

var ErrNoFrontMatter = errors.New("no frontmatter block")

// ParseFrontMatter reads the metadata block at the top of content. YAML (---),
// TOML (+++) and JSON ({) blocks are recognised. It returns the decoded
// metadata, the remaining body, and the detected format. Content whose
// leading brace does not open a JSON object is body, not metadata.
func ParseFrontMatter(content []byte) (models.Frontmatter, string, string, error) {
	var fm models.Frontmatter
	str := normalizeLineEndings(string(content))
	str = strings.TrimPrefix(str, "\ufeff")

	// Check for YAML (---)
	if block, body, ok := splitFenced(str, "---"); ok {
		if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
			return fm, "", "yaml", fmt.Errorf("yaml frontmatter: %w", err)
		}
		return fm, body, "yaml", nil
	}
	// Check for TOML (+++)
	if block, body, ok := splitFenced(str, "+++"); ok {
		if err := toml.Unmarshal([]byte(block), &fm); err != nil {
			return fm, "", "toml", fmt.Errorf("toml frontmatter: %w", err)
		}
		return fm, body, "toml", nil
	}
	// Check for JSON ({). MDX bodies may also open with a JSX expression such
	// as {/* note */}, so only a whole object on its own lines counts.
	if strings.HasPrefix(strings.TrimSpace(str), "{") {
		if fm, body, ok := splitJSON(str); ok {
			return fm, body, "json", nil
		}
	}

	return fm, strings.TrimSpace(str), "", ErrNoFrontMatter
}

// splitJSON decodes a leading JSON object. The object must be followed by a
// newline or the end of the content.
func splitJSON(s string) (models.Frontmatter, string, bool) {
	var fm models.Frontmatter
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&fm); err != nil {
		return models.Frontmatter{}, "", false
	}
	rest := s[dec.InputOffset():]
	if trimmed := strings.TrimLeft(rest, " \t"); trimmed != "" && !strings.HasPrefix(trimmed, "\n") {
		return models.Frontmatter{}, "", false
	}
	return fm, strings.TrimSpace(rest), true
}

// splitFenced cuts "<fence>\n...\n<fence>" off the start of s.
func splitFenced(s, fence string) (string, string, bool) {
	if !strings.HasPrefix(s, fence+"\n") {
		return "", "", false
	}
	rest := s[len(fence)+1:]
	if strings.HasPrefix(rest, fence) {
		return "", strings.TrimSpace(strings.TrimPrefix(rest, fence)), true
	}
	end := strings.Index(rest, "\n"+fence)
	if end < 0 {
		return "", "", false
	}
	block := rest[:end]
	body := rest[end+1+len(fence):]
	return block, strings.TrimSpace(body), true
}

// StripFrontMatter returns content without its metadata block. Content with
// no recognised block is returned unchanged.
func StripFrontMatter(content []byte) []byte {
	_, body, _, err := ParseFrontMatter(content)
	if err != nil {
		return bytes.TrimSpace(content)
	}
	return []byte(body)
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
