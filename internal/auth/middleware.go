package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUserName = "auth_user_name"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
)

// UserLookup loads a signed-in user's profile.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*entities.User, error)
}

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	sessionManager *SessionManager
	users          UserLookup
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware. sessionManager and
// users may be nil in "none" mode.
func NewMiddleware(sessionManager *SessionManager, users UserLookup, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/health":      true,
		"/ping":        true,
		"/metrics":     true,
		"/favicon.ico": true,
	}

	return &Middleware{
		sessionManager: sessionManager,
		users:          users,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler runs every request as the local user.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, config.LocalUserID)
		c.Set(ContextKeyUserName, config.LocalUserName)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		if userID, name := m.trySessionAuth(c); userID != "" {
			c.Set(ContextKeyUserID, userID)
			c.Set(ContextKeyUserName, name)
			c.Set(ContextKeyAuthType, AuthTypeSession)
			c.Next()
			return
		}

		if m.isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		target := "/auth/signin?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		if c.GetHeader("HX-Request") == "true" {
			// A plain redirect would swap the sign-in page into a fragment.
			c.Header("HX-Redirect", target)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// trySessionAuth returns the session's user, refreshing the display name
// from the users table when available.
func (m *Middleware) trySessionAuth(c *gin.Context) (string, string) {
	if m.sessionManager == nil {
		return "", ""
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == "" {
		return "", ""
	}
	name := m.sessionManager.GetUserName(c.Request)

	if m.users != nil {
		user, err := m.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			// Session outlived the user row.
			return "", ""
		}
		name = user.Name
	}
	return userID, name
}

// isPublicPath checks if a path should be accessible without authentication.
func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/auth/")
}

// isAPIRequest determines if this is an API request vs web browser request.
func (m *Middleware) isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// GetUserID retrieves the authenticated user's ID from the context, or an
// empty string when the request is anonymous.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetUserName retrieves the authenticated user's display name.
func GetUserName(c *gin.Context) string {
	return c.GetString(ContextKeyUserName)
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if the request runs as some user.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
