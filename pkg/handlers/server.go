package handlers

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"mdx-wiki/pkg/logger"
	"mdx-wiki/pkg/metrics"
	"mdx-wiki/pkg/models"
	"mdx-wiki/pkg/services"
)

//go:embed templates/*
var templateFS embed.FS

// Options wires the HTTP surface to the services.
type Options struct {
	Store     *services.IndexStore
	Resolver  *services.Resolver
	Languages []string
	Strings   func(lang string) models.UIStrings

	// PublicAssetsDir is served under /assets when set.
	PublicAssetsDir string

	// Rebuild runs the prebuild pass and returns the fresh index. Admin
	// routes are only mounted when Rebuild and SessionSecret are set.
	Rebuild       func(ctx context.Context) (models.EntryIndex, error)
	Sync          func(ctx context.Context, token string) (string, error)
	SessionSecret string

	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server holds the request handlers.
type Server struct {
	opts    Options
	log     zerolog.Logger
	matcher language.Matcher
}

func NewServer(opts Options) *Server {
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"en"}
	}
	if opts.Strings == nil {
		opts.Strings = func(string) models.UIStrings { return models.UIStrings{} }
	}
	tags := make([]language.Tag, 0, len(opts.Languages))
	for _, l := range opts.Languages {
		tags = append(tags, language.Make(l))
	}
	return &Server{
		opts:    opts,
		log:     logger.Component(opts.Logger, "http"),
		matcher: language.NewMatcher(tags),
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)

	if s.opts.PublicAssetsDir != "" {
		r.Static("/assets", s.opts.PublicAssetsDir)
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/api/entries", s.ListEntries)

	if s.opts.Rebuild != nil && s.opts.SessionSecret != "" {
		store := cookie.NewStore([]byte(s.opts.SessionSecret))
		admin := r.Group("/")
		admin.Use(sessions.Sessions("wikisession", store))
		{
			admin.GET("/login/github", GithubLogin)
			admin.GET("/auth/callback", AuthCallback)
			admin.GET("/logout", Logout)

			api := admin.Group("/api")
			api.Use(AuthRequired)
			{
				api.POST("/build", s.HandleBuild)
				api.POST("/sync", s.HandleSync)
			}
		}
	}

	r.GET("/", s.RootRedirect)
	r.GET("/:lang", s.WikiPage)
	r.GET("/:lang/:entry", s.WikiPage)
	r.NoRoute(func(c *gin.Context) { s.notFound(c, s.opts.Languages[0]) })

	return r, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
