package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// IndexToken is the file id that stands for the enclosing folder.
const IndexToken = "index"

// ContentName is the parsed form of a content file name, <id>.<lang>.<ext>.
type ContentName struct {
	ID        string
	Language  string
	Extension string // with leading dot
}

// FileName renders the name back into <id>.<lang>.<ext>.
func (n ContentName) FileName() string {
	return n.ID + "." + n.Language + n.Extension
}

// FilenameError reports a content file whose name does not follow <id>.<lang>.<ext>.
type FilenameError struct {
	Name   string
	Reason string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("malformed content file name %q: %s", e.Name, e.Reason)
}

// ParseFilename splits a base name into id, language and extension. The id
// may itself contain dots; the language is the segment right before ext.
func ParseFilename(name, ext string) (ContentName, error) {
	if !strings.HasSuffix(name, ext) {
		return ContentName{}, &FilenameError{Name: name, Reason: "extension is not " + ext}
	}
	stem := strings.TrimSuffix(name, ext)

	dot := strings.LastIndex(stem, ".")
	if dot < 0 {
		return ContentName{}, &FilenameError{Name: name, Reason: "missing language segment"}
	}
	id, lang := stem[:dot], stem[dot+1:]
	if id == "" {
		return ContentName{}, &FilenameError{Name: name, Reason: "empty id"}
	}
	if lang == "" {
		return ContentName{}, &FilenameError{Name: name, Reason: "empty language"}
	}
	if _, err := language.Parse(lang); err != nil {
		return ContentName{}, &FilenameError{Name: name, Reason: fmt.Sprintf("invalid language %q", lang)}
	}

	return ContentName{ID: id, Language: lang, Extension: ext}, nil
}
