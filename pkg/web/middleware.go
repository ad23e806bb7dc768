package web

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/korjavin/whatthefridge/pkg/logger"
)

const (
	// SessionCookie carries the session id
	SessionCookie = "wtf_session"

	sessionKey = "session_id"
)

// Session makes sure every request carries a session id, issuing a fresh
// one when the cookie is missing or malformed.
func Session(ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}
		// refresh on every request so the cookie outlives activity, not creation
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, maxAge, "/", "", false, true)
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// RequestLogger logs one line per request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		format := "%s %s -> %d (%v) session=%s"
		args := []interface{}{c.Request.Method, path, status, time.Since(start), sessionID(c)}
		switch {
		case status >= 500:
			log.Error(format, args...)
		case status >= 400:
			log.Warn(format, args...)
		default:
			log.Info(format, args...)
		}
	}
}

// CORS allows the configured front-end origins
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})
}
