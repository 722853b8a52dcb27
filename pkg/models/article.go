package models

import "sort"

// Article is one language-specific rendering of an Entry.
type Article struct {
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle,omitempty"`
	Language     string  `json:"language"`
	Default      bool    `json:"default"`
	CreatedAt    *string `json:"createdAt"` // ISO-8601 or null
	UpdatedAt    *string `json:"updatedAt"`
	OriginalPath string  `json:"originalPath"`
}

// Entry is a logical wiki page aggregating one Article per language.
type Entry struct {
	ID              string              `json:"id"`
	Parents         []string            `json:"parents"`
	DefaultLanguage string              `json:"defaultLanguage"`
	Articles        map[string]*Article `json:"articles"`
}

// Languages returns the article language codes other than except, sorted.
func (e *Entry) Languages(except string) []string {
	langs := make([]string, 0, len(e.Articles))
	for lang := range e.Articles {
		if lang != except {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// EntryIndex maps entry id to Entry. It is the serialized index artifact.
type EntryIndex map[string]*Entry

// IDs returns the entry ids in sorted order.
func (idx EntryIndex) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Frontmatter is the metadata block at the top of a content file.
type Frontmatter struct {
	Title    string `json:"title" yaml:"title" toml:"title"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle" toml:"subtitle"`
	Default  bool   `json:"default,omitempty" yaml:"default" toml:"default"`
}

// Size returns the number of entries and of articles across all entries.
func (idx EntryIndex) Size() (entries, articles int) {
	for _, e := range idx {
		articles += len(e.Articles)
	}
	return len(idx), articles
}
