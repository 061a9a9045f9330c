package http

import (
	"context"
	"html/template"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/database"
	"github.com/mrlokans/bookinfo/internal/database/favourites"
	"github.com/mrlokans/bookinfo/internal/entities"
	"github.com/mrlokans/bookinfo/internal/library"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCatalog answers lookups from memory and counts upstream calls.
type stubCatalog struct {
	books []catalog.Book
	err   error
	calls int
}

func (s *stubCatalog) Name() string { return "stub" }

func (s *stubCatalog) SearchByTitle(_ context.Context, title string) ([]catalog.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, catalog.ErrEmptyTitle
	}
	s.calls++
	return s.books, s.err
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLibrary(t *testing.T, cat *stubCatalog) (*library.Service, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	return library.NewService(cat, favourites.NewRepository(db.DB)), db
}

func loadTestTemplates(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := LoadTemplates(filepath.Join("..", "..", "templates"))
	require.NoError(t, err)
	return tmpl
}

// asUser runs every request as the user named in the X-Test-User header,
// falling back to the local user.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-Test-User")
		if userID == "" {
			userID = config.LocalUserID
		}
		c.Set(auth.ContextKeyUserID, userID)
		c.Set(auth.ContextKeyUserName, userID)
		c.Next()
	}
}

func seedUsers(t *testing.T, db *database.Database, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.DB.Create(&entities.User{ID: id, Name: id}).Error)
	}
}

func strPtr(s string) *string { return &s }
