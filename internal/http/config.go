package http

import (
	"html/template"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/covers"
	"github.com/mrlokans/bookinfo/internal/database"
	"github.com/mrlokans/bookinfo/internal/metrics"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library  Library
	Database *database.Database

	// Cover caching, nil disables /api/books/:id/cover
	CoverCache *covers.Cache

	// Metrics, nil disables /metrics and request counting
	Collector *metrics.Collector

	// Authentication. SessionManager, AuthMiddleware and AuthController are
	// nil in "none" mode.
	AuthConfig     config.Auth
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFSecret     []byte

	// UI. Templates takes precedence over TemplatesPath when set.
	TemplatesPath string
	StaticPath    string
	Templates     *template.Template

	// Application info
	Version string
}

func (cfg RouterConfig) recorder() metrics.Recorder {
	if cfg.Collector == nil {
		return metrics.Nop{}
	}
	return cfg.Collector
}
