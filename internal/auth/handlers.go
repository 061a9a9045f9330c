package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/entities"
	"github.com/mrlokans/bookinfo/internal/logger"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
// Returns true if the path is safe for redirect (local path only).
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// UserStore persists identities returned by the provider.
type UserStore interface {
	Upsert(ctx context.Context, user *entities.User) error
}

// AuthController handles the sign-in round trip with the identity provider.
type AuthController struct {
	provider       OAuthProvider
	sessionManager *SessionManager
	users          UserStore
}

// NewAuthController creates a new authentication controller.
func NewAuthController(provider OAuthProvider, sessionManager *SessionManager, users UserStore) *AuthController {
	return &AuthController{
		provider:       provider,
		sessionManager: sessionManager,
		users:          users,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/auth/signin", ac.SignIn)
	router.GET("/auth/callback", ac.Callback)
	router.POST("/auth/signout", ac.SignOut)
}

// SignIn sends the browser to the provider's consent page.
func (ac *AuthController) SignIn(c *gin.Context) {
	if ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, sanitizeRedirectPath(c.Query("next")))
		return
	}

	state, err := newState()
	if err != nil {
		logger.L.Error("generate oauth state", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not start sign-in.")
		return
	}

	ac.sessionManager.PutOAuthState(c.Request, state, sanitizeRedirectPath(c.Query("next")))
	c.Redirect(http.StatusFound, ac.provider.LoginURL(state))
}

// Callback completes the authorization code flow started by SignIn.
func (ac *AuthController) Callback(c *gin.Context) {
	expected, next := ac.sessionManager.PopOAuthState(c.Request)
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		logger.L.Warn("oauth state mismatch", zap.String("ip", c.ClientIP()))
		c.String(http.StatusBadRequest, "Sign-in expired. Please try again.")
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		logger.L.Info("oauth sign-in declined", zap.String("error", providerErr))
		c.Redirect(http.StatusFound, "/")
		return
	}

	identity, err := ac.provider.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		logger.L.Error("oauth exchange", zap.Error(err))
		c.String(http.StatusBadGateway, "Could not complete sign-in. Please try again later.")
		return
	}

	user := &entities.User{
		ID:       identity.Subject,
		Name:     identity.Name,
		Email:    identity.Email,
		Image:    identity.Image,
		Provider: identity.Provider,
	}
	if user.Name == "" {
		user.Name = identity.Email
	}
	if err := ac.users.Upsert(c.Request.Context(), user); err != nil {
		logger.L.Error("store signed-in user", zap.String("user_id", user.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not complete sign-in. Please try again later.")
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user.ID, user.Name); err != nil {
		logger.L.Error("create session", zap.String("user_id", user.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not complete sign-in. Please try again later.")
		return
	}

	logger.L.Info("user signed in", zap.String("user_id", user.ID), zap.String("provider", user.Provider))
	c.Redirect(http.StatusFound, sanitizeRedirectPath(next))
}

// SignOut destroys the session and returns to the home page.
func (ac *AuthController) SignOut(c *gin.Context) {
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		logger.L.Warn("destroy session", zap.Error(err))
	}
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", "/")
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
