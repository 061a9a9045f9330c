package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/database/favourites"
	"github.com/mrlokans/bookinfo/internal/library"
	"github.com/mrlokans/bookinfo/internal/metrics"
)

func setupFullRouter(t *testing.T, cat *stubCatalog) *gin.Engine {
	t.Helper()
	db := setupTestDB(t)
	seedUsers(t, db, config.LocalUserID)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	lib := library.NewService(cat, favourites.NewRepository(db.DB), library.WithMetrics(collector))

	router, err := NewRouter(RouterConfig{
		Library:   lib,
		Database:  db,
		Collector: collector,
		Templates: loadTestTemplates(t),
		Version:   "test",
	})
	require.NoError(t, err)
	return router
}

func TestNewRouter_LocalModeFlow(t *testing.T) {
	cat := &stubCatalog{books: []catalog.Book{{ID: "v1", Title: "Dune", Authors: []string{"Frank Herbert"}}}}
	router := setupFullRouter(t, cat)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/catalog/search?title=dune", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Dune"`)

	req := httptest.NewRequest(http.MethodPost, "/api/books",
		strings.NewReader(`{"title":"Dune","authors":["Frank Herbert"]}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(router, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created savedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, config.LocalUserID, created.Book.UserID)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Books, 1)

	w = serve(router, httptest.NewRequest(http.MethodDelete, "/api/books/"+created.Book.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	page := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), config.LocalUserName)
	assert.Equal(t, "DENY", page.Header().Get("X-Frame-Options"))
}

func TestNewRouter_CoverRouteDisabledWithoutCache(t *testing.T) {
	router := setupFullRouter(t, &stubCatalog{})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/books/abc/cover", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_Health(t *testing.T) {
	router := setupFullRouter(t, &stubCatalog{})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version": "test"`)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := setupFullRouter(t, &stubCatalog{err: errors.New("down")})

	serve(router, httptest.NewRequest(http.MethodGet, "/api/catalog/search?title=dune", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `bookinfo_http_requests_total{method="GET",route="/api/catalog/search",status="502"} 1`)
	assert.Contains(t, text, `route="unmatched"`)
	assert.Contains(t, text, `bookinfo_catalog_lookups_total{outcome="error",provider="stub"} 1`)
}

func TestNewRouter_MissingTemplates(t *testing.T) {
	lib, _ := newTestLibrary(t, &stubCatalog{})

	_, err := NewRouter(RouterConfig{
		Library:       lib,
		TemplatesPath: t.TempDir(),
	})

	assert.Error(t, err)
}
