package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/covers"
	"github.com/mrlokans/bookinfo/internal/logger"
)

// CoversController serves cached covers of saved books.
type CoversController struct {
	cache   *covers.Cache
	library Library
}

// NewCoversController creates a new CoversController.
func NewCoversController(cache *covers.Cache, lib Library) *CoversController {
	return &CoversController{
		cache:   cache,
		library: lib,
	}
}

// GetCover serves a cached book cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	book, err := cc.library.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		c.Status(statusFor(err))
		return
	}

	if book.CoverImage == nil || *book.CoverImage == "" {
		c.Status(http.StatusNotFound)
		return
	}

	// Get cached cover (will fetch if not cached)
	cachePath, err := cc.cache.GetCover(c.Request.Context(), book.ID, *book.CoverImage)
	if err != nil || cachePath == "" {
		logger.L.Debug("Cover cache miss, redirecting",
			zap.String("book_id", book.ID),
			zap.Error(err))
		// Fallback: redirect to original URL
		c.Redirect(http.StatusTemporaryRedirect, *book.CoverImage)
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.File(cachePath)
}
