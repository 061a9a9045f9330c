// Package covers keeps a local copy of saved books' cover images.
//
// Cover URLs come from the external catalog and are stored as given, so
// fetches go through an SSRF-guarded client: http and https only, ports 80
// and 443, private and loopback ranges refused after DNS resolution.
package covers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/google/uuid"
)

const (
	filePrefix      = "cover_"
	maxCoverBytes   = 5 << 20
	fetchTimeout    = 30 * time.Second
	coverUserAgent  = "BookInfo/1.0"
	tempFilePattern = "cover_tmp_"
)

var ErrInvalidBookID = errors.New("invalid book id")

// Cache handles local caching of book cover images.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a cover cache at cacheDir using the SSRF-guarded client.
func NewCache(cacheDir string) (*Cache, error) {
	return NewCacheWithClient(cacheDir, newSafeClient(fetchTimeout))
}

// NewCacheWithClient creates a cover cache that fetches through client.
func NewCacheWithClient(cacheDir string, client *http.Client) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir:   cacheDir,
		httpClient: client,
	}, nil
}

func newSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// GetCover returns the path of the cached cover for a book, fetching it first
// when it is not cached yet. An empty coverURL yields an empty path.
func (c *Cache) GetCover(ctx context.Context, bookID, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	filename, err := c.coverFilename(bookID, coverURL)
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(c.cacheDir, filename)

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(ctx, coverURL, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// Warm fetches a cover into the cache without returning its path.
func (c *Cache) Warm(ctx context.Context, bookID, coverURL string) error {
	_, err := c.GetCover(ctx, bookID, coverURL)
	return err
}

// Invalidate removes every cached cover for a book.
func (c *Cache) Invalidate(bookID string) error {
	if _, err := uuid.Parse(bookID); err != nil {
		return ErrInvalidBookID
	}

	pattern := filepath.Join(c.cacheDir, filePrefix+bookID+"_*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Prune deletes cached covers whose book id is not in keep and returns how
// many files were removed.
func (c *Cache) Prune(keep map[string]bool) (int, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		bookID, ok := bookIDFromFilename(entry.Name())
		if !ok || keep[bookID] {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// coverFilename generates a unique filename based on book ID and URL hash.
func (c *Cache) coverFilename(bookID, coverURL string) (string, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return "", ErrInvalidBookID
	}
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("%s%s_%x.jpg", filePrefix, bookID, hash[:8]), nil
}

// bookIDFromFilename extracts the book id from "cover_<uuid>_<hash>.jpg".
func bookIDFromFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || strings.HasPrefix(name, tempFilePattern) {
		return "", false
	}
	rest := strings.TrimPrefix(name, filePrefix)
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return "", false
	}
	bookID := rest[:idx]
	if _, err := uuid.Parse(bookID); err != nil {
		return "", false
	}
	return bookID, true
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(ctx context.Context, url, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", coverUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("failed to fetch cover: unexpected content type %q", ct)
	}

	// Create temp file in same directory for atomic write
	tmpFile, err := os.CreateTemp(c.cacheDir, tempFilePattern)
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return err
	}
	if n > maxCoverBytes {
		return fmt.Errorf("failed to fetch cover: larger than %d bytes", maxCoverBytes)
	}

	tmpFile.Close()

	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
