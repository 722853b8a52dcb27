package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"mdx-wiki/pkg/config"
	"mdx-wiki/pkg/handlers"
	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/metrics"
	"mdx-wiki/pkg/models"
	"mdx-wiki/pkg/services"
)

func main() {
	// Initialize config
	config.Init()
	log := logger.New(logger.Config{Level: config.LogLevel, Pretty: config.LogPretty})
	if err := config.LoadSite(); err != nil {
		log.Fatal().Err(err).Msg("load site config")
	}
	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// The index must exist before anything can be served.
	outDir := config.Resolve(config.OutputDir)
	store, err := services.OpenIndexStore(outDir, config.IndexFileName, config.ContentExt)
	if err != nil {
		log.Fatal().Err(err).Str("index", config.IndexPath()).Msg("load entry index; run prebuild first")
	}
	m.SetIndexSize(store.Index().Size())

	resolver := services.NewResolver(services.ResolverOptions{
		Store:            store,
		Markdown:         services.NewMarkdownRenderer(),
		LandingEntry:     config.LandingEntry,
		EditURLPrefix:    config.EditURLPrefix,
		HistoryURLPrefix: config.HistoryURLPrefix,
		Location:         config.DisplayLocation,
		Strings:          config.Strings,
		Logger:           log,
		Metrics:          m,
	})

	history := services.NewHistoryCache(services.NewGitHistory(config.RepoPath))
	var buildMu sync.Mutex
	rebuild := func(ctx context.Context) (models.EntryIndex, error) {
		buildMu.Lock()
		defer buildMu.Unlock()
		return services.BuildSite(ctx, services.BuildOptions{History: history, Logger: log, Metrics: m})
	}

	opts := handlers.Options{
		Store:           store,
		Resolver:        resolver,
		Languages:       config.Languages,
		Strings:         config.Strings,
		PublicAssetsDir: config.Resolve(config.PublicAssetsDir),
		Logger:          log,
		Metrics:         m,
		Gatherer:        prometheus.DefaultGatherer,
	}
	if config.AdminEnabled() {
		opts.Rebuild = rebuild
		opts.Sync = services.SyncRepo
		opts.SessionSecret = config.SessionSecret
	}

	router, err := handlers.NewServer(opts).Router()
	if err != nil {
		log.Fatal().Err(err).Msg("init router")
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		entries, articles := store.Index().Size()
		log.Info().Str("addr", srv.Addr).Int("entries", entries).Int("articles", articles).Msg("wiki listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen")
			os.Exit(1)
		}
	}()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
