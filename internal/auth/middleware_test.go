package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/entities"
)

type stubUsers map[string]*entities.User

func (s stubUsers) GetByID(_ context.Context, id string) (*entities.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

// protectedRouter puts the session and auth middleware in front of a
// handler reporting the resolved user, plus a route that signs users in.
func protectedRouter(sm *SessionManager, users UserLookup, mode config.AuthMode) *gin.Engine {
	cfg := testAuthConfig()
	cfg.Mode = mode

	router := gin.New()
	if sm != nil {
		router.Use(sm.SessionLoadSave())
	}
	router.Use(NewMiddleware(sm, users, cfg).Handler())

	report := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c),
			"user_name": GetUserName(c),
			"auth_type": GetAuthType(c),
		})
	}
	router.GET("/protected", report)
	router.GET("/api/books", report)
	router.GET("/health", report)
	router.GET("/static/app.css", report)
	router.GET("/auth/test-login", func(c *gin.Context) {
		_ = sm.CreateSession(c.Request, c.Query("id"), "session name")
		c.Status(http.StatusOK)
	})
	return router
}

func TestMiddleware_NoAuthMode(t *testing.T) {
	router := protectedRouter(nil, nil, config.AuthModeNone)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`"user_id":"local"`, `"user_name":"Guest"`, `"auth_type":"none"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
}

func TestMiddleware_PublicPaths(t *testing.T) {
	router := protectedRouter(NewMemorySessionManager(testAuthConfig()), nil, config.AuthModeOAuth)

	for _, path := range []string{"/health", "/static/app.css"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200 for public path %s, got %d", path, rr.Code)
			}
		})
	}
}

func TestMiddleware_ProtectedPath_RedirectsToSignIn(t *testing.T) {
	router := protectedRouter(NewMemorySessionManager(testAuthConfig()), nil, config.AuthModeOAuth)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rr.Code != http.StatusFound {
		t.Errorf("Expected redirect (302), got %d", rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/auth/signin?next=%2Fprotected" {
		t.Errorf("Expected redirect to sign-in, got %s", location)
	}
}

func TestMiddleware_HTMXRequest_UsesHXRedirect(t *testing.T) {
	router := protectedRouter(NewMemorySessionManager(testAuthConfig()), nil, config.AuthModeOAuth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") == "" {
		t.Error("Expected HX-Redirect header")
	}
}

func TestMiddleware_APIRequest_Returns401(t *testing.T) {
	router := protectedRouter(NewMemorySessionManager(testAuthConfig()), nil, config.AuthModeOAuth)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestMiddleware_SessionAuth(t *testing.T) {
	sm := NewMemorySessionManager(testAuthConfig())
	users := stubUsers{"sub-1": {ID: "sub-1", Name: "Ada Lovelace"}}
	router := protectedRouter(sm, users, config.AuthModeOAuth)

	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/test-login?id=sub-1", nil))
	cookie := sessionCookie(t, loginRec)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`"user_id":"sub-1"`, `"user_name":"Ada Lovelace"`, `"auth_type":"session"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
}

func TestMiddleware_SessionForDeletedUser(t *testing.T) {
	sm := NewMemorySessionManager(testAuthConfig())
	router := protectedRouter(sm, stubUsers{}, config.AuthModeOAuth)

	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/auth/test-login?id=gone", nil))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.AddCookie(sessionCookie(t, loginRec))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a session whose user no longer exists, got %d", rr.Code)
	}
}

func TestGetUserID_Anonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetUserID(c); id != "" {
		t.Errorf("Expected empty user id, got %q", id)
	}
	if IsAuthenticated(c) {
		t.Error("Expected anonymous context")
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Errorf("Expected AuthTypeNone, got %v", GetAuthType(c))
	}
}
