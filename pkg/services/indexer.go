package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/metrics"
	"mdx-wiki/pkg/models"
)

// DuplicateIDError reports an entry id that appears in more than one folder.
type DuplicateIDError struct {
	ID              string
	Folder          string
	ExistingParents []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate entry id %q in folder %q (already defined under %q)",
		e.ID, e.Folder, "/"+strings.Join(e.ExistingParents, "/"))
}

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// RepoRoot is the base for Article.OriginalPath.
	RepoRoot string
	// ContentRoot is the content tree to walk.
	ContentRoot string
	// OutputDir receives the flat content copies and the index file. It is
	// replaced as a whole when the run succeeds.
	OutputDir     string
	IndexFileName string
	Ext           string
	History       HistoryLookup
	Concurrency   int
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// Folder is one directory of the content tree.
type Folder struct {
	Path     string   // absolute or RepoRoot-relative filesystem path
	Segments []string // path segments below the content root
}

// Name is the slash-joined folder path below the content root.
func (f Folder) Name() string {
	return "/" + strings.Join(f.Segments, "/")
}

type Indexer struct {
	opts IndexOptions
	log  zerolog.Logger
}

func NewIndexer(opts IndexOptions) *Indexer {
	if opts.Ext == "" {
		opts.Ext = ".mdx"
	}
	if opts.IndexFileName == "" {
		opts.IndexFileName = "entries.json"
	}
	if opts.History == nil {
		opts.History = NoHistory{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RepoRoot == "" {
		opts.RepoRoot = "."
	}
	return &Indexer{opts: opts, log: logger.Component(opts.Logger, "indexer")}
}

// Build indexes the content tree and writes the flat content store plus the
// index file into OutputDir. Either the whole run succeeds and OutputDir is
// replaced, or the previous OutputDir is left untouched.
func (ix *Indexer) Build(ctx context.Context) (idx models.EntryIndex, err error) {
	start := time.Now()
	defer func() { ix.opts.Metrics.RecordBuild(start, err) }()

	folders, err := ListFolders(ix.opts.ContentRoot)
	if err != nil {
		return nil, err
	}

	staging, err := ix.stagingDir()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(staging)
		}
	}()

	global := models.EntryIndex{}
	files := 0
	for _, folder := range folders {
		folderIdx, n, err := ix.IndexFolder(ctx, folder, staging)
		if err != nil {
			return nil, err
		}
		files += n

		global, err = MergeFolder(global, folderIdx, folder.Name())
		if err != nil {
			return nil, err
		}
	}

	if err := WriteIndex(filepath.Join(staging, ix.opts.IndexFileName), global); err != nil {
		return nil, err
	}
	// MkdirTemp creates 0700; the served output must be readable.
	if err := os.Chmod(staging, 0755); err != nil {
		return nil, err
	}
	if err := swapDir(staging, ix.opts.OutputDir); err != nil {
		return nil, err
	}

	ix.log.Info().
		Int("folders", len(folders)).
		Int("files", files).
		Int("entries", len(global)).
		Dur("took", time.Since(start)).
		Str("out", ix.opts.OutputDir).
		Msg("index built")
	return global, nil
}

func (ix *Indexer) stagingDir() (string, error) {
	out := filepath.Clean(ix.opts.OutputDir)
	parent := filepath.Dir(out)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(parent, "."+filepath.Base(out)+"-*")
}

// swapDir replaces dst with src. The previous dst is renamed aside first and
// only removed once src is in place, so dst is missing for one rename at most.
// If src cannot be moved in, the previous dst is restored.
func swapDir(src, dst string) error {
	old := ""
	if _, err := os.Stat(dst); err == nil {
		old = src + ".old"
		if err := os.Rename(dst, old); err != nil {
			return fmt.Errorf("move aside %s: %w", dst, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		if old != "" {
			os.Rename(old, dst)
		}
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if old != "" {
		os.RemoveAll(old)
	}
	return nil
}

// ListFolders returns every directory under root, root included, in lexical
// walk order. Hidden directories are skipped.
func ListFolders(root string) ([]Folder, error) {
	var folders []Folder
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		segments := []string{}
		if rel != "." {
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			segments = strings.Split(filepath.ToSlash(rel), "/")
		}
		folders = append(folders, Folder{Path: path, Segments: segments})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content tree %s: %w", root, err)
	}
	return folders, nil
}

type contentFile struct {
	path    string
	name    ContentName
	history History
}

// IndexFolder builds the entries contributed by the direct content files of
// folder and copies each file into outDir. It returns the number of files.
func (ix *Indexer) IndexFolder(ctx context.Context, folder Folder, outDir string) (models.EntryIndex, int, error) {
	files, err := ix.listContentFiles(folder)
	if err != nil {
		return nil, 0, err
	}
	log := ix.log.With().Str("folder", folder.Name()).Logger()
	log.Debug().Int("files", len(files)).Msg("indexing folder")

	if err := ix.lookupHistory(ctx, files); err != nil {
		return nil, 0, err
	}

	folderIdx := models.EntryIndex{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		id, parents := entryLocation(f.name.ID, folder.Segments)

		content, err := os.ReadFile(f.path)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", f.path, err)
		}
		fm, _, _, err := ParseFrontMatter(content)
		if errors.Is(err, ErrNoFrontMatter) {
			log.Warn().Str("file", f.path).Msg("no frontmatter; title falls back to entry id")
		} else if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", f.path, err)
		}
		if fm.Title == "" {
			fm.Title = id
		}

		article := &models.Article{
			Title:        fm.Title,
			Subtitle:     fm.Subtitle,
			Language:     f.name.Language,
			Default:      fm.Default,
			CreatedAt:    isoTimestamp(f.history.Created),
			UpdatedAt:    isoTimestamp(f.history.Updated),
			OriginalPath: ix.originalPath(f.path),
		}
		addArticle(folderIdx, id, parents, article)

		flat := ContentName{ID: id, Language: f.name.Language, Extension: f.name.Extension}
		if err := os.WriteFile(filepath.Join(outDir, flat.FileName()), content, 0644); err != nil {
			return nil, 0, fmt.Errorf("copy %s: %w", f.path, err)
		}
		log.Debug().Str("file", f.path).Str("entry", id).Str("language", f.name.Language).Msg("indexed")
	}
	return folderIdx, len(files), nil
}

func (ix *Indexer) listContentFiles(folder Folder) ([]*contentFile, error) {
	dirEntries, err := os.ReadDir(folder.Path)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", folder.Path, err)
	}
	var files []*contentFile
	for _, d := range dirEntries {
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ix.opts.Ext) {
			continue
		}
		parsed, err := ParseFilename(name, ix.opts.Ext)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", folder.Name(), err)
		}
		files = append(files, &contentFile{path: filepath.Join(folder.Path, name), name: parsed})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// lookupHistory fills in each file's history concurrently. A failed lookup
// leaves the timestamps absent; only cancellation aborts.
func (ix *Indexer) lookupHistory(ctx context.Context, files []*contentFile) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Concurrency)
	for _, f := range files {
		f := f
		g.Go(func() error {
			h, err := ix.opts.History.FirstAndLastChange(gctx, ix.historyPath(f.path))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				ix.opts.Metrics.RecordHistoryFailure()
				ix.log.Warn().Err(err).Str("file", f.path).Msg("history lookup failed")
				return nil
			}
			f.history = h
			return nil
		})
	}
	return g.Wait()
}

func (ix *Indexer) historyPath(path string) string {
	if rel, err := filepath.Rel(ix.opts.RepoRoot, path); err == nil {
		return rel
	}
	return path
}

func (ix *Indexer) originalPath(path string) string {
	return filepath.ToSlash(ix.historyPath(path))
}

// entryLocation maps a file id in a folder to the entry id and parents. An
// index file stands for its folder, so the folder is not its own parent.
func entryLocation(fileID string, segments []string) (string, []string) {
	parents := append([]string{}, segments...)
	if fileID == IndexToken && len(segments) > 0 {
		return segments[len(segments)-1], parents[:len(parents)-1]
	}
	return fileID, parents
}

// addArticle merges article into the folder accumulator. A second file for
// the same id and language replaces the first.
func addArticle(folderIdx models.EntryIndex, id string, parents []string, article *models.Article) {
	if existing, ok := folderIdx[id]; ok {
		existing.Articles[article.Language] = article
		if article.Default {
			existing.DefaultLanguage = article.Language
		}
		return
	}
	folderIdx[id] = &models.Entry{
		ID:              id,
		Parents:         parents,
		DefaultLanguage: article.Language,
		Articles:        map[string]*models.Article{article.Language: article},
	}
}

// MergeFolder folds one folder's entries into the global index. Neither
// input is modified. Any id already present globally is a DuplicateIDError.
func MergeFolder(global, folderIdx models.EntryIndex, folder string) (models.EntryIndex, error) {
	for _, id := range folderIdx.IDs() {
		if existing, ok := global[id]; ok {
			return nil, &DuplicateIDError{ID: id, Folder: folder, ExistingParents: existing.Parents}
		}
	}

	merged := make(models.EntryIndex, len(global)+len(folderIdx))
	for id, e := range global {
		merged[id] = e
	}
	for id, e := range folderIdx {
		merged[id] = e
	}
	return merged, nil
}

// WriteIndex serializes idx as JSON to path.
func WriteIndex(path string, idx models.EntryIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ReadIndex loads an index written by WriteIndex.
func ReadIndex(path string) (models.EntryIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexMissing, path)
		}
		return nil, err
	}
	var idx models.EntryIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if idx == nil {
		return nil, fmt.Errorf("decode index %s: not an object", path)
	}
	return idx, nil
}
