package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mrlokans/bookinfo/internal/config"
)

const defaultGoogleBooksBaseURL = "https://www.googleapis.com"

// GoogleBooksClient searches the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
	limiter    *rate.Limiter
}

// NewGoogleBooksClient creates a Google Books client. The API key is optional.
func NewGoogleBooksClient(cfg config.Catalog) *GoogleBooksClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleBooksBaseURL
	}
	return &GoogleBooksClient{
		httpClient: newHTTPClient(cfg.Timeout),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		limiter:    newLimiter(cfg.RateInterval),
	}
}

func (c *GoogleBooksClient) Name() string { return string(config.CatalogProviderGoogle) }

// SearchByTitle returns the volumes matching title. Zero matches is an empty
// slice, not an error.
func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title string) ([]Book, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fetchError(c.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(title), nil)
	if err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("search volumes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(c.Name(), fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result googleVolumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("decode response: %w", err))
	}

	books := make([]Book, 0, len(result.Items))
	for _, item := range result.Items {
		books = append(books, convertVolume(item))
	}
	return books, nil
}

func (c *GoogleBooksClient) searchURL(title string) string {
	params := url.Values{"q": {title}}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	if c.maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(c.maxResults))
	}
	return c.baseURL + "/books/v1/volumes?" + params.Encode()
}

func convertVolume(item googleVolume) Book {
	info := item.VolumeInfo
	book := Book{
		ID:            item.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   plainText(info.Description),
		PublishedDate: info.PublishedDate,
	}
	if info.ImageLinks != nil {
		book.CoverImage = info.ImageLinks.Thumbnail
		if book.CoverImage == "" {
			book.CoverImage = info.ImageLinks.SmallThumbnail
		}
		// Google serves the same images over https.
		if strings.HasPrefix(book.CoverImage, "http://") {
			book.CoverImage = "https://" + strings.TrimPrefix(book.CoverImage, "http://")
		}
	}
	return withDefaults(book)
}

// Google Books API response types (internal)

type googleVolumesResponse struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title         string            `json:"title"`
	Authors       []string          `json:"authors"`
	Description   string            `json:"description"`
	PublishedDate string            `json:"publishedDate"`
	ImageLinks    *googleImageLinks `json:"imageLinks"`
}

type googleImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
