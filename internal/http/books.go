package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookinfo/internal/library"
)

// saveBookRequest is the body of POST /api/books. A userId in the body is
// not part of the schema and never reaches the store.
type saveBookRequest struct {
	Title         string   `json:"title" binding:"required,max=1000"`
	Authors       []string `json:"authors" binding:"required,dive,max=500"`
	Description   *string  `json:"description"`
	PublishedDate *string  `json:"publishedDate" binding:"omitempty,max=64"`
	CoverImage    *string  `json:"coverImage" binding:"omitempty,max=2048"`
}

type BooksController struct {
	library Library
}

func NewBooksController(lib Library) *BooksController {
	return &BooksController{library: lib}
}

// Search looks books up in the catalog by title.
// GET /api/catalog/search?title=
func (bc *BooksController) Search(c *gin.Context) {
	books, err := bc.library.Lookup(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondLibraryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// Create saves a book for the authenticated user.
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req saveBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", validationDetails(err))
		return
	}

	book, err := bc.library.Save(c.Request.Context(), library.SaveInput{
		UserID:        GetUserID(c),
		Title:         req.Title,
		Authors:       req.Authors,
		Description:   req.Description,
		PublishedDate: req.PublishedDate,
		CoverImage:    req.CoverImage,
	})
	if err != nil {
		respondLibraryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "book": book})
}

// List returns the authenticated user's saved books.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.library.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondLibraryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

// Delete removes one of the authenticated user's saved books.
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	if err := bc.library.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		respondLibraryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": library.MsgDeleted})
}

// validationDetails lists the failing fields of a binding error, or nil when
// the body was not valid JSON at all.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
