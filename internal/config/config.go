package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single-user mode, every request runs as the local user (default)
	AuthModeOAuth AuthMode = "oauth" // External OAuth 2.0 / OpenID identity provider
)

type CatalogProvider string

const (
	CatalogProviderGoogle      CatalogProvider = "google"
	CatalogProviderOpenLibrary CatalogProvider = "openlibrary"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalog
		UI
		Auth
		Covers
		Tasks
		Log
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		// URL is either a SQLite file path (or ":memory:") or a postgres:// connection string.
		URL string
	}
	Catalog struct {
		Provider     CatalogProvider
		APIKey       string
		BaseURL      string        // Overrides the provider's default endpoint
		Timeout      time.Duration // Per-request timeout for outbound lookups
		MaxResults   int           // 0 lets the provider decide
		RateInterval time.Duration // Minimum spacing between outbound requests, 0 disables pacing
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		SecureCookies   bool // Set to false for local dev without HTTPS

		OAuthClientID     string
		OAuthClientSecret string
		OAuthRedirectURL  string
		OAuthAuthURL      string // Empty means Google
		OAuthTokenURL     string
		OAuthUserInfoURL  string
	}
	Covers struct {
		Enabled       bool
		Dir           string
		PruneSchedule string // Cron format: "0 * * * *" = hourly
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Level          string
		File           string // Empty disables the rotated file sink
		FileMaxSize    int    // megabytes
		FileMaxBackups int
		FileMaxAge     int // days
		Compress       bool
	}
	Metrics struct {
		Enabled bool
	}
)

// getDatabaseURL prefers DATABASE_URL and falls back to the older DATABASE_PATH.
func getDatabaseURL(v *viper.Viper) string {
	if url := v.GetString("DATABASE_URL"); url != "" {
		return url
	}
	return v.GetString("DATABASE_PATH")
}

func NewConfig() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_url", "")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Catalog defaults
	v.SetDefault("catalog_provider", string(CatalogProviderGoogle))
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("catalog_base_url", "")
	v.SetDefault("catalog_timeout", "10s")
	v.SetDefault("catalog_max_results", 0)
	v.SetDefault("catalog_rate_interval", "0s")

	// Auth defaults
	v.SetDefault("auth_mode", string(AuthModeNone))
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("oauth_client_id", "")
	v.SetDefault("oauth_client_secret", "")
	v.SetDefault("oauth_redirect_url", "http://localhost:8188/auth/callback")
	v.SetDefault("oauth_auth_url", "")
	v.SetDefault("oauth_token_url", "")
	v.SetDefault("oauth_userinfo_url", "")

	// Cover cache defaults
	v.SetDefault("covers_enabled", true)
	v.SetDefault("covers_dir", "./covers")
	v.SetDefault("covers_prune_schedule", "0 * * * *") // Hourly at :00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_file_max_size", 50)
	v.SetDefault("log_file_max_backups", 3)
	v.SetDefault("log_file_max_age", 28)
	v.SetDefault("log_compress", false)

	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL: getDatabaseURL(v),
		},
		Catalog: Catalog{
			Provider:     CatalogProvider(strings.ToLower(v.GetString("CATALOG_PROVIDER"))),
			APIKey:       v.GetString("GOOGLE_BOOKS_API_KEY"),
			BaseURL:      v.GetString("CATALOG_BASE_URL"),
			Timeout:      v.GetDuration("CATALOG_TIMEOUT"),
			MaxResults:   v.GetInt("CATALOG_MAX_RESULTS"),
			RateInterval: v.GetDuration("CATALOG_RATE_INTERVAL"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Auth: Auth{
			Mode:              AuthMode(strings.ToLower(v.GetString("AUTH_MODE"))),
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:   v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:     v.GetBool("AUTH_SECURE_COOKIES"),
			OAuthClientID:     v.GetString("OAUTH_CLIENT_ID"),
			OAuthClientSecret: v.GetString("OAUTH_CLIENT_SECRET"),
			OAuthRedirectURL:  v.GetString("OAUTH_REDIRECT_URL"),
			OAuthAuthURL:      v.GetString("OAUTH_AUTH_URL"),
			OAuthTokenURL:     v.GetString("OAUTH_TOKEN_URL"),
			OAuthUserInfoURL:  v.GetString("OAUTH_USERINFO_URL"),
		},
		Covers: Covers{
			Enabled:       v.GetBool("COVERS_ENABLED"),
			Dir:           v.GetString("COVERS_DIR"),
			PruneSchedule: v.GetString("COVERS_PRUNE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level:          v.GetString("LOG_LEVEL"),
			File:           v.GetString("LOG_FILE"),
			FileMaxSize:    v.GetInt("LOG_FILE_MAX_SIZE"),
			FileMaxBackups: v.GetInt("LOG_FILE_MAX_BACKUPS"),
			FileMaxAge:     v.GetInt("LOG_FILE_MAX_AGE"),
			Compress:       v.GetBool("LOG_COMPRESS"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}

// Validate reports configuration combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.Mode {
	case AuthModeNone:
	case AuthModeOAuth:
		if c.Auth.OAuthClientID == "" || c.Auth.OAuthClientSecret == "" {
			errs = append(errs, errors.New("oauth mode requires OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
		if c.Auth.OAuthRedirectURL == "" {
			errs = append(errs, errors.New("oauth mode requires OAUTH_REDIRECT_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode))
	}

	switch c.Catalog.Provider {
	case CatalogProviderGoogle, CatalogProviderOpenLibrary:
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_PROVIDER %q", c.Catalog.Provider))
	}

	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}

	return errors.Join(errs...)
}
