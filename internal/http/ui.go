package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/library"
)

// Messages of the UI-only alerts.
const (
	msgSaved       = "Book saved."
	msgInvalidForm = "The book could not be saved from this form."
)

// formFieldLabels names saveBookForm fields in alerts.
var formFieldLabels = map[string]string{
	"Title":         "Title",
	"Authors":       "Each author name",
	"PublishedDate": "Published date",
	"CoverImage":    "Cover image URL",
}

type UIController struct {
	library       Library
	authEnabled   bool
	coversEnabled bool
}

func NewUIController(lib Library, authEnabled, coversEnabled bool) *UIController {
	return &UIController{
		library:       lib,
		authEnabled:   authEnabled,
		coversEnabled: coversEnabled,
	}
}

// pageData is the data every full page template receives.
func (controller *UIController) pageData(c *gin.Context, title, active string) gin.H {
	return gin.H{
		"Title":       title,
		"Active":      active,
		"UserName":    auth.GetUserName(c),
		"AuthEnabled": controller.authEnabled,
		"SignedIn":    auth.GetAuthType(c) == auth.AuthTypeSession,
		"CSRFToken":   auth.GetCSRFToken(c),
		"Provider":    controller.library.ProviderName(),
		"Covers":      controller.coversEnabled,
	}
}

// HomePage renders the search page.
// GET /
func (controller *UIController) HomePage(c *gin.Context) {
	data := controller.pageData(c, "Search", "search")
	data["Query"] = c.Query("title")
	c.HTML(http.StatusOK, "index", data)
}

// SearchResults renders the result cards for a title lookup. On failure the
// alert is swapped into the alert region, so the previous results stay.
// GET /ui/search?title=
func (controller *UIController) SearchResults(c *gin.Context) {
	title := c.Query("title")
	books, err := controller.library.Lookup(c.Request.Context(), title)
	if err != nil {
		renderAlert(c, "error", library.Message(err))
		return
	}

	c.HTML(http.StatusOK, "search_results", gin.H{
		"Books":     books,
		"Query":     title,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// saveBookForm is the form posted by a search result card.
type saveBookForm struct {
	Title         string   `form:"title" binding:"required,max=1000"`
	Authors       []string `form:"authors" binding:"dive,max=500"`
	Description   string   `form:"description"`
	PublishedDate string   `form:"publishedDate" binding:"max=64"`
	CoverImage    string   `form:"coverImage" binding:"max=2048"`
}

// SaveBook saves a search result for the current user.
// POST /ui/books
func (controller *UIController) SaveBook(c *gin.Context) {
	var form saveBookForm
	if err := c.ShouldBind(&form); err != nil {
		renderAlert(c, "error", formErrorMessage(err))
		return
	}

	_, err := controller.library.Save(c.Request.Context(), library.SaveInput{
		UserID:        GetUserID(c),
		Title:         form.Title,
		Authors:       form.Authors,
		Description:   optional(form.Description),
		PublishedDate: optional(form.PublishedDate),
		CoverImage:    optional(form.CoverImage),
	})
	if err != nil {
		renderAlert(c, "error", library.Message(err))
		return
	}

	c.Header("HX-Trigger", "bookSaved")
	renderAlert(c, "success", msgSaved)
}

// ResultDetail renders the detail overlay of a search result, with its save
// action, from the fields the result card carries.
// GET /ui/results/detail
func (controller *UIController) ResultDetail(c *gin.Context) {
	var form saveBookForm
	if err := c.ShouldBindQuery(&form); err != nil {
		c.String(http.StatusBadRequest, formErrorMessage(err))
		return
	}

	c.HTML(http.StatusOK, "result_detail", gin.H{
		"Book": catalog.Book{
			Title:         form.Title,
			Authors:       form.Authors,
			Description:   form.Description,
			PublishedDate: form.PublishedDate,
			CoverImage:    form.CoverImage,
		},
	})
}

// SavedBooksPage renders the current user's saved books.
// GET /saved-books
func (controller *UIController) SavedBooksPage(c *gin.Context) {
	data := controller.pageData(c, "Saved books", "saved")

	books, err := controller.library.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		data["Error"] = library.Message(err)
		c.HTML(statusFor(err), "saved_books", data)
		return
	}

	data["Books"] = books
	data["TotalBooks"] = len(books)
	c.HTML(http.StatusOK, "saved_books", data)
}

// DeleteBook removes a saved book card. The empty 200 body replaces the card.
// DELETE /ui/books/:id
func (controller *UIController) DeleteBook(c *gin.Context) {
	if err := controller.library.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		renderAlert(c, "error", library.Message(err))
		return
	}
	c.Header("HX-Trigger", "bookDeleted")
	c.String(http.StatusOK, "")
}

// BookDetail renders the detail overlay of a saved book.
// GET /ui/books/:id
func (controller *UIController) BookDetail(c *gin.Context) {
	book, err := controller.library.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		c.String(statusFor(err), library.Message(err))
		return
	}

	c.HTML(http.StatusOK, "book_detail", gin.H{
		"Book":   book,
		"Covers": controller.coversEnabled,
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formErrorMessage turns the first binding failure of saveBookForm into an
// alert.
func formErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidForm
	}

	fe := verrs[0]
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}

	switch {
	case field == "Title" && fe.Tag() == "required":
		return library.MsgTitleRequired
	case fe.Tag() == "max" && formFieldLabels[field] != "":
		return fmt.Sprintf("%s must be at most %s characters.", formFieldLabels[field], fe.Param())
	default:
		return msgInvalidForm
	}
}
