// Package catalog looks books up by title in an external catalog.
//
// Two providers are available: Google Books (default) and OpenLibrary. Both
// map upstream entries into the flat Book shape and apply the same defaults
// for missing fields.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/bookinfo/internal/config"
)

const (
	DefaultDescription   = "No description available."
	DefaultPublishedDate = "Unknown"

	userAgent = "BookInfo/1.0 (https://github.com/mrlokans/bookinfo)"
)

var (
	// ErrFetch is wrapped by every transport, status or decoding failure.
	ErrFetch = errors.New("could not fetch book data")

	ErrEmptyTitle = errors.New("title is required")
)

// Book is one catalog search result. It is never persisted.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	CoverImage    string   `json:"coverImage,omitempty"`
}

// Provider searches an external catalog.
type Provider interface {
	Name() string
	SearchByTitle(ctx context.Context, title string) ([]Book, error)
}

// NewProvider builds the provider selected by configuration.
func NewProvider(cfg config.Catalog) (Provider, error) {
	switch cfg.Provider {
	case config.CatalogProviderGoogle, "":
		return NewGoogleBooksClient(cfg), nil
	case config.CatalogProviderOpenLibrary:
		return NewOpenLibraryClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown catalog provider %q", cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// newLimiter returns a limiter allowing one request per interval, or an
// unlimited one when interval is zero.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// fetchError wraps cause so that errors.Is(err, ErrFetch) holds.
func fetchError(provider string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrFetch, provider, cause)
}

// withDefaults fills the fields the catalog left empty.
func withDefaults(b Book) Book {
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if strings.TrimSpace(b.Description) == "" {
		b.Description = DefaultDescription
	}
	if strings.TrimSpace(b.PublishedDate) == "" {
		b.PublishedDate = DefaultPublishedDate
	}
	return b
}
