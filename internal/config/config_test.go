package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.URL)
	assert.Equal(t, CatalogProviderGoogle, cfg.Catalog.Provider)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.True(t, cfg.Covers.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Covers.PruneSchedule)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GOOGLE_BOOKS_API_KEY", "secret-key")
	t.Setenv("CATALOG_PROVIDER", "OpenLibrary")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "shh")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "secret-key", cfg.Catalog.APIKey)
	assert.Equal(t, CatalogProviderOpenLibrary, cfg.Catalog.Provider)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, AuthModeOAuth, cfg.Auth.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_DatabaseURLPrecedence(t *testing.T) {
	t.Run("falls back to DATABASE_PATH", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/data/books.db")
		cfg := NewConfig()
		assert.Equal(t, "/data/books.db", cfg.Database.URL)
	})

	t.Run("prefers DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/data/books.db")
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/books")
		cfg := NewConfig()
		assert.Equal(t, "postgres://u:p@db:5432/books", cfg.Database.URL)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("oauth without credentials", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.Mode = AuthModeOAuth

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OAUTH_CLIENT_ID")
	})

	t.Run("unknown modes", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.Mode = "ldap"
		cfg.Catalog.Provider = "amazon"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH_MODE")
		assert.Contains(t, err.Error(), "CATALOG_PROVIDER")
	})
}
