package models

// SiteConfig is the optional wiki.yml file at the repository root.
type SiteConfig struct {
	Name         string               `yaml:"name"`
	Languages    []string             `yaml:"languages"`
	LandingEntry string               `yaml:"landing_entry"`
	Strings      map[string]UIStrings `yaml:"strings"`
}

// UIStrings holds the page chrome labels for one language.
type UIStrings struct {
	CreatedAt      string `yaml:"created_at"`
	UpdatedAt      string `yaml:"updated_at"`
	OtherLanguages string `yaml:"other_languages"`
	Edit           string `yaml:"edit"`
	History        string `yaml:"history"`
	Footnotes      string `yaml:"footnotes"`
	NotFound       string `yaml:"not_found"`
}

// Merge fills empty fields of s from fallback.
func (s UIStrings) Merge(fallback UIStrings) UIStrings {
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	return UIStrings{
		CreatedAt:      pick(s.CreatedAt, fallback.CreatedAt),
		UpdatedAt:      pick(s.UpdatedAt, fallback.UpdatedAt),
		OtherLanguages: pick(s.OtherLanguages, fallback.OtherLanguages),
		Edit:           pick(s.Edit, fallback.Edit),
		History:        pick(s.History, fallback.History),
		Footnotes:      pick(s.Footnotes, fallback.Footnotes),
		NotFound:       pick(s.NotFound, fallback.NotFound),
	}
}
