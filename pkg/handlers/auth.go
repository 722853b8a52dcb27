package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"mdx-wiki/pkg/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// AuthRequired rejects admin API calls without a GitHub session.
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	if token, _ := session.Get("access_token").(string); token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func GithubLogin(c *gin.Context) {
	state := newState()
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	if want, _ := session.Get("oauth_state").(string); want == "" || want != c.Query("state") {
		c.String(http.StatusBadRequest, "OAuth state mismatch")
		return
	}

	token, err := config.OauthConf.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	session.Delete("oauth_state")
	session.Set("access_token", token.AccessToken)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func newState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
