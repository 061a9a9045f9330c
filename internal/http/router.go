package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/config"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	if cfg.Collector != nil {
		router.Use(RequestMetrics(cfg.recorder()))
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(authMiddleware.Handler())

	tmpl := cfg.Templates
	if tmpl == nil {
		var err error
		if tmpl, err = LoadTemplates(cfg.TemplatesPath); err != nil {
			return nil, err
		}
	}
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	var db Pinger
	if cfg.Database != nil {
		db = cfg.Database
	}
	health := NewHealthController(db, cfg.Library.ProviderName(), cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.Collector != nil {
		router.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	// JSON API
	books := NewBooksController(cfg.Library)
	router.GET("/api/catalog/search", books.Search)
	router.GET("/api/books", books.List)
	router.POST("/api/books", books.Create)
	router.DELETE("/api/books/:id", books.Delete)

	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Library)
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// UI routes
	ui := NewUIController(cfg.Library, cfg.AuthController != nil, cfg.CoverCache != nil)
	router.GET("/", ui.HomePage)
	router.GET("/ui/search", ui.SearchResults)
	router.GET("/ui/results/detail", ui.ResultDetail)
	router.POST("/ui/books", ui.SaveBook)
	router.GET("/ui/books/:id", ui.BookDetail)
	router.DELETE("/ui/books/:id", ui.DeleteBook)
	router.GET("/saved-books", ui.SavedBooksPage)

	return router, nil
}
