package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/bookinfo/internal/config"
)

const (
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	openLibraryCoversURL      = "https://covers.openlibrary.org"
)

// OpenLibraryClient searches the OpenLibrary search API.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	coversURL  string
	limit      int
	limiter    *rate.Limiter
}

// NewOpenLibraryClient creates an OpenLibrary client. OpenLibrary asks
// clients to stay around one request per second, which is the default pacing
// when CATALOG_RATE_INTERVAL is unset.
func NewOpenLibraryClient(cfg config.Catalog) *OpenLibraryClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenLibraryBaseURL
	}
	interval := cfg.RateInterval
	if interval == 0 {
		interval = time.Second
	}
	return &OpenLibraryClient{
		httpClient: newHTTPClient(cfg.Timeout),
		baseURL:    baseURL,
		coversURL:  openLibraryCoversURL,
		limit:      cfg.MaxResults,
		limiter:    newLimiter(interval),
	}
}

func (c *OpenLibraryClient) Name() string { return string(config.CatalogProviderOpenLibrary) }

// SearchByTitle returns the works matching title.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title string) ([]Book, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fetchError(c.Name(), err)
	}

	params := url.Values{"title": {title}}
	if c.limit > 0 {
		params.Set("limit", strconv.Itoa(c.limit))
	}
	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("search books: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(c.Name(), fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var searchResult openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fetchError(c.Name(), fmt.Errorf("decode search response: %w", err))
	}

	books := make([]Book, 0, len(searchResult.Docs))
	for i := range searchResult.Docs {
		books = append(books, c.convertSearchDoc(&searchResult.Docs[i]))
	}
	return books, nil
}

func (c *OpenLibraryClient) convertSearchDoc(doc *openLibrarySearchDoc) Book {
	book := Book{
		ID:      strings.TrimPrefix(doc.Key, "/works/"),
		Title:   doc.Title,
		Authors: doc.AuthorName,
	}

	if len(doc.FirstSentence) > 0 {
		book.Description = plainText(doc.FirstSentence[0])
	}

	if doc.FirstPublishYear != 0 {
		book.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
	}

	if doc.CoverI != 0 {
		book.CoverImage = fmt.Sprintf("%s/b/id/%d-M.jpg", c.coversURL, doc.CoverI)
	} else if len(doc.ISBN) > 0 {
		book.CoverImage = fmt.Sprintf("%s/b/isbn/%s-M.jpg", c.coversURL, doc.ISBN[0])
	}

	return withDefaults(book)
}

// OpenLibrary API response types (internal)

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	FirstSentence    []string `json:"first_sentence"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
}
