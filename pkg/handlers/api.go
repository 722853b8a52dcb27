package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"mdx-wiki/pkg/services"
)

// ListEntries returns the served entry index.
func (s *Server) ListEntries(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Store.Index())
}

// HandleBuild reruns the prebuild pass and swaps the served index.
func (s *Server) HandleBuild(c *gin.Context) {
	idx, err := s.opts.Rebuild(c.Request.Context())
	if idx != nil {
		// the content store on disk already matches idx
		s.opts.Store.Replace(idx)
		s.opts.Metrics.SetIndexSize(idx.Size())
	}
	if err != nil {
		s.log.Error().Err(err).Msg("rebuild failed")
		status := http.StatusInternalServerError
		var dup *services.DuplicateIDError
		var bad *services.FilenameError
		if errors.As(err, &dup) || errors.As(err, &bad) {
			// content problems, reported to the editor
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "entries": len(idx)})
}

// HandleSync pulls the content repository with the session token, then rebuilds.
func (s *Server) HandleSync(c *gin.Context) {
	if s.opts.Sync == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "sync not configured"})
		return
	}
	session := sessions.Default(c)
	token, _ := session.Get("access_token").(string)

	log, err := s.opts.Sync(c.Request.Context(), token)
	if err != nil {
		s.log.Error().Err(err).Msg("sync failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	s.HandleBuild(c)
}
