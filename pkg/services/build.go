package services

import (
	"context"

	"github.com/rs/zerolog"

	"mdx-wiki/pkg/config"
	"mdx-wiki/pkg/metrics"
	"mdx-wiki/pkg/models"
)

// BuildOptions selects the collaborators of a site build. Paths come from config.
type BuildOptions struct {
	History    HistoryLookup
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	SkipAssets bool
}

// BuildSite runs the prebuild pass: index the content tree into the flat
// content store, then mirror the asset directory. A HistoryCache is cleared
// first so every build reads the repository as it is now. When only the asset
// mirror fails, the new index is already on disk and is returned with the error.
func BuildSite(ctx context.Context, opts BuildOptions) (models.EntryIndex, error) {
	history := opts.History
	if history == nil {
		history = NewGitHistory(config.RepoPath)
	}
	if cache, ok := history.(*HistoryCache); ok {
		cache.Invalidate()
	}

	ix := NewIndexer(IndexOptions{
		RepoRoot:      config.RepoPath,
		ContentRoot:   config.Resolve(config.ContentDir),
		OutputDir:     config.Resolve(config.OutputDir),
		IndexFileName: config.IndexFileName,
		Ext:           config.ContentExt,
		History:       history,
		Concurrency:   config.HistoryConcurrency,
		Logger:        opts.Logger,
		Metrics:       opts.Metrics,
	})
	idx, err := ix.Build(ctx)
	if err != nil {
		return nil, err
	}

	if !opts.SkipAssets {
		n, err := MirrorAssets(config.Resolve(config.AssetsDir), config.Resolve(config.PublicAssetsDir))
		if err != nil {
			return idx, err
		}
		opts.Logger.Info().Int("files", n).Str("dst", config.PublicAssetsDir).Msg("assets mirrored")
	}
	return idx, nil
}
