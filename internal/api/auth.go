package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/tvscraper/internal/config"
)

const authRealm = "tvscraper API"

// basicAuth rejects requests whose Basic credentials do not match cfg.
func basicAuth(cfg config.AuthConfig, log *slog.Logger) gin.HandlerFunc {
	if len(cfg.Password) < 8 {
		log.Warn("API password is less than 8 characters, consider using a stronger password")
	}

	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, log, "missing credentials")
			return
		}
		if !validCredentials(cfg, username, password) {
			unauthorized(c, log, "invalid credentials")
			return
		}
		c.Next()
	}
}

// validCredentials compares in constant time; both must match.
func validCredentials(cfg config.AuthConfig, username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	return usernameMatch && passwordMatch
}

func unauthorized(c *gin.Context, log *slog.Logger, reason string) {
	log.Warn("API auth failed",
		"reason", reason,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
	)

	c.Header("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
