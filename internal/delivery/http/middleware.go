package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
	"github.com/lshcatalog/viewer/internal/usecase"
)

const httpModule = "http"

// SessionHeader carries the viewer session id in requests and responses
const SessionHeader = "X-Session-ID"

const sessionContextKey = "viewer_session"

// CORSMiddleware handles CORS for the viewer front end
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, "+SessionHeader)
			c.Writer.Header().Set("Access-Control-Expose-Headers", SessionHeader)
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		// Support wildcard suffix matching, e.g. http://localhost:*
		if strings.HasSuffix(allowed, "*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// LoggerMiddleware logs each request through the structured logger
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		details := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			details["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error(httpModule, "request failed", details)
		case status >= http.StatusBadRequest:
			log.Warn(httpModule, "request rejected", details)
		default:
			log.Info(httpModule, "request handled", details)
		}
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// SessionMiddleware attaches the viewer session to the request. Requests with
// a missing or expired session id get a new session; the id is echoed in the
// response header and cookie.
func SessionMiddleware(sessions *usecase.SessionService, log logger.Logger, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				id = cookie
			}
		}

		session, created := sessions.GetOrCreate(id)
		if created && id != "" {
			log.Info(httpModule, "unknown session replaced", map[string]interface{}{
				"previous": id,
				"session":  session.ID(),
				"client":   c.ClientIP(),
			})
		}

		c.Header(SessionHeader, session.ID())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, session.ID(), 0, "/", "", secure, true)
		c.Set(sessionContextKey, session)

		c.Next()
	}
}

// currentSession returns the session attached by SessionMiddleware
func currentSession(c *gin.Context) *usecase.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*usecase.Session); ok {
			return s
		}
	}
	return nil
}
