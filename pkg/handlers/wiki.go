package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"mdx-wiki/pkg/services"
)

// RootRedirect sends / to the landing entry of the best Accept-Language match.
func (s *Server) RootRedirect(c *gin.Context) {
	_, idx := language.MatchStrings(s.matcher, c.GetHeader("Accept-Language"))
	lang := s.opts.Languages[0]
	if idx >= 0 && idx < len(s.opts.Languages) {
		lang = s.opts.Languages[idx]
	}
	s.resolve(c, lang, "")
}

// WikiPage serves /:lang and /:lang/:entry.
func (s *Server) WikiPage(c *gin.Context) {
	s.resolve(c, c.Param("lang"), c.Param("entry"))
}

func (s *Server) resolve(c *gin.Context, lang, entry string) {
	res, err := s.opts.Resolver.Resolve(c.Request.Context(), lang, entry)
	if err != nil {
		s.log.Error().Err(err).Str("language", lang).Str("entry", entry).Msg("resolve failed")
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Language": lang,
		})
		return
	}

	switch res.Kind {
	case services.ResolveRedirect:
		c.Redirect(http.StatusTemporaryRedirect, res.Location)
	case services.ResolveRender:
		p := res.Page
		c.HTML(http.StatusOK, "page.html", gin.H{
			"Page": p,
			"Body": template.HTML(p.Body),
			"T":    p.Strings,
		})
	default:
		s.notFound(c, lang)
	}
}

func (s *Server) notFound(c *gin.Context, lang string) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{
		"Language": lang,
		"T":        s.opts.Strings(lang),
	})
}
