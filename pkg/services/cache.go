package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mdx-wiki/pkg/models"
)

var (
	ErrIndexMissing   = errors.New("entry index not found")
	ErrContentMissing = errors.New("content body missing for indexed entry")
)

// IndexStore serves the index artifact and the flat content store written by
// the Indexer. The loaded index is treated as immutable; Reload swaps it.
type IndexStore struct {
	dir       string
	indexFile string
	ext       string

	mu       sync.RWMutex
	index    models.EntryIndex
	rendered map[string]string
	gen      uint64
}

// OpenIndexStore loads dir/indexFile. A missing or malformed index is an error
// the caller should treat as fatal.
func OpenIndexStore(dir, indexFile, ext string) (*IndexStore, error) {
	s := &IndexStore{dir: dir, indexFile: indexFile, ext: ext}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewIndexStore wraps an already built index, e.g. one returned by Indexer.Build.
func NewIndexStore(dir, indexFile, ext string, idx models.EntryIndex) *IndexStore {
	return &IndexStore{dir: dir, indexFile: indexFile, ext: ext, index: idx, rendered: map[string]string{}}
}

// Reload re-reads the index file and drops rendered bodies. On error the
// previous index stays in place.
func (s *IndexStore) Reload() error {
	idx, err := ReadIndex(filepath.Join(s.dir, s.indexFile))
	if err != nil {
		return err
	}
	s.Replace(idx)
	return nil
}

// Replace swaps in idx and drops rendered bodies.
func (s *IndexStore) Replace(idx models.EntryIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
	s.rendered = map[string]string{}
	s.gen++
}

// Index returns the current index. Callers must not modify it.
func (s *IndexStore) Index() models.EntryIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Lookup returns the entry for id.
func (s *IndexStore) Lookup(id string) (*models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.index[id]
	return e, ok
}

// Body reads the raw content file for (id, lang) from the flat store.
func (s *IndexStore) Body(ctx context.Context, id, lang string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := ContentName{ID: id, Language: lang, Extension: s.ext}.FileName()
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrContentMissing, name)
	}
	return data, err
}

// CachedRender returns the rendered body for key, computing it with render on
// a miss. Entries live until the next Reload or Replace.
func (s *IndexStore) CachedRender(key string, render func() (string, error)) (string, error) {
	s.mu.RLock()
	html, ok := s.rendered[key]
	gen := s.gen
	s.mu.RUnlock()
	if ok {
		return html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.gen == gen {
		s.rendered[key] = html
	}
	s.mu.Unlock()
	return html, nil
}
