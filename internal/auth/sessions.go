package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/logger"
)

// Session data keys
const (
	SessionKeyUserID     = "user_id"
	SessionKeyUserName   = "user_name"
	SessionKeyLoginAt    = "login_at"
	SessionKeyOAuthState = "oauth_state"
	SessionKeyNext       = "next"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager backed by a sessions table in
// the SQLite database behind sqlDB.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := newSessionManager(cfg)
	sm.Store = sqlite3store.New(sqlDB)
	return &SessionManager{SessionManager: sm}, nil
}

// NewMemorySessionManager keeps sessions in process memory. It is used when
// the main database is not SQLite; sessions do not survive a restart.
func NewMemorySessionManager(cfg config.Auth) *SessionManager {
	sm := newSessionManager(cfg)
	sm.Store = memstore.New()
	return &SessionManager{SessionManager: sm}
}

func newSessionManager(cfg config.Auth) *scs.SessionManager {
	sm := scs.New()

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2 // Half of lifetime for inactivity

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the cookie comes back on the provider's redirect to /auth/callback.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return sm
}

// CreateSession stores the signed-in user in a fresh session.
func (sm *SessionManager) CreateSession(r *http.Request, userID, userName string) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyUserID, userID)
	sm.Put(r.Context(), SessionKeyUserName, userName)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID retrieves the user ID from the session, empty if not signed in.
func (sm *SessionManager) GetUserID(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUserID)
}

// GetUserName retrieves the display name from the session.
func (sm *SessionManager) GetUserName(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUserName)
}

// IsAuthenticated returns true if the request has a signed-in session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != ""
}

// PutOAuthState remembers the state parameter of a sign-in in progress.
func (sm *SessionManager) PutOAuthState(r *http.Request, state, next string) {
	sm.Put(r.Context(), SessionKeyOAuthState, state)
	sm.Put(r.Context(), SessionKeyNext, next)
}

// PopOAuthState returns and clears the pending state and redirect target.
func (sm *SessionManager) PopOAuthState(r *http.Request) (state, next string) {
	return sm.PopString(r.Context(), SessionKeyOAuthState), sm.PopString(r.Context(), SessionKeyNext)
}

// SessionLoadSave loads the session named by the request cookie and saves
// it once the handler chain is done with it. Handlers reach the session
// through c.Request, so it must run before Middleware.Handler.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			logger.L.Error("Failed to load session", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		w := &sessionWriter{ResponseWriter: c.Writer}
		w.save = func() { sm.save(ctx, w.ResponseWriter) }
		c.Writer = w

		c.Next()

		// Handlers that only set a status never touch the writer.
		w.once.Do(w.save)
	}
}

// save commits a changed session and sets or clears its cookie on w.
func (sm *SessionManager) save(ctx context.Context, w http.ResponseWriter) {
	w.Header().Add("Vary", "Cookie")

	switch sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := sm.Commit(ctx)
		if err != nil {
			logger.L.Error("Failed to save session",
				zap.String("user_id", sm.GetString(ctx, SessionKeyUserID)),
				zap.Error(err))
			return
		}
		w.Header().Set("Cache-Control", `no-cache="Set-Cookie"`)
		sm.WriteSessionCookie(ctx, w, token, expiry)
	case scs.Destroyed:
		sm.WriteSessionCookie(ctx, w, "", time.Time{})
	}
}

// sessionWriter runs save right before the first header or body byte is
// sent, since cookies cannot be added after that.
type sessionWriter struct {
	gin.ResponseWriter
	once sync.Once
	save func()
}

func (w *sessionWriter) WriteHeader(code int) {
	w.once.Do(w.save)
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.once.Do(w.save)
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.once.Do(w.save)
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.once.Do(w.save)
	return w.ResponseWriter.WriteString(s)
}
