package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"soxmonitor/internal/domain/auth"
)

const sessionContextKey = "auth_session"

// RequireSession gates a route group behind bearer token resolution. The
// resolved session is stashed in the gin context for handlers; every auth
// failure surfaces as a 401 before any handler logic runs.
func RequireSession(authority *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			AbortError(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		sess, err := authority.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				AbortError(c, http.StatusUnauthorized, "Token has expired")
			case errors.Is(err, auth.ErrInvalidToken):
				AbortError(c, http.StatusUnauthorized, "Invalid or expired token")
			default:
				AbortError(c, http.StatusInternalServerError, "Session lookup failed")
			}
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(c *gin.Context) (auth.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return auth.Session{}, false
	}
	sess, ok := value.(auth.Session)
	return sess, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
