package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/library"
)

// Library is the set of book operations the handlers call.
type Library interface {
	ProviderName() string
	Lookup(ctx context.Context, title string) ([]catalog.Book, error)
	Save(ctx context.Context, in library.SaveInput) (*library.SavedBook, error)
	List(ctx context.Context, userID string) ([]library.SavedBook, error)
	Get(ctx context.Context, userID, bookID string) (*library.SavedBook, error)
	Delete(ctx context.Context, userID, bookID string) error
}

var _ Library = (*library.Service)(nil)

// GetUserID extracts the authenticated user's ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error kind
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// --- Error Response Helpers ---

// statusFor maps a library error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrUpstreamFetch):
		return http.StatusBadGateway
	case errors.Is(err, library.ErrNotFoundOrUnauthorized):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// codeFor returns the machine-readable kind of a library error.
func codeFor(err error) string {
	var libErr *library.Error
	if errors.As(err, &libErr) {
		return libErr.Kind.Error()
	}
	return ""
}

// respondLibraryError sends the user-facing message of err with the status
// of its kind. Internal causes were already logged by the library.
func respondLibraryError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{
		Error: library.Message(err),
		Code:  codeFor(err),
	})
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string, details any) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Code:    library.ErrInvalidInput.Error(),
		Details: details,
	})
}

// --- HTMX Support ---

// isHTMXRequest returns true if the request is an HTMX request.
func isHTMXRequest(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// alertTarget is the page element error fragments are swapped into, leaving
// the element the request targeted untouched.
const alertTarget = "#alerts"

// renderAlert renders the alert fragment into the alert region. The status is
// 200 so that HTMX performs the swap.
func renderAlert(c *gin.Context, kind, message string) {
	if isHTMXRequest(c) {
		c.Header("HX-Retarget", alertTarget)
		c.Header("HX-Reswap", "innerHTML")
	}
	c.HTML(http.StatusOK, "alert", gin.H{
		"Kind":    kind,
		"Message": message,
	})
}
