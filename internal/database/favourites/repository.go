// Package favourites provides database operations for a user's saved books.
//
// This package implements the library.Store interface defined in
// internal/library/service.go.
//
// # Interface Implementation
//
//	var _ library.Store = (*Repository)(nil)
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	books, err := repo.ListForUser(ctx, userID)
package favourites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/bookinfo/internal/entities"
)

// ErrNotFound is returned when no saved book matches both the id and the
// owning user.
var ErrNotFound = errors.New("saved book not found")

// BookInput is the data stored for one saved book.
type BookInput struct {
	Title         string
	Authors       []string
	Description   *string
	PublishedDate *string
	CoverImage    *string
}

// Repository handles all saved book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a new saved book owned by userID. Saving the same title twice
// creates two rows.
func (r *Repository) Save(ctx context.Context, userID string, input BookInput) (*entities.SavedBook, error) {
	book := &entities.SavedBook{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         input.Title,
		Description:   input.Description,
		PublishedDate: input.PublishedDate,
		CoverImage:    input.CoverImage,
	}
	book.SetAuthors(input.Authors)
	for i := range book.AuthorList {
		book.AuthorList[i].SavedBookID = book.ID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "AuthorList").Create(book).Error; err != nil {
			return fmt.Errorf("insert saved book: %w", err)
		}
		if len(book.AuthorList) == 0 {
			return nil
		}
		if err := tx.Create(&book.AuthorList).Error; err != nil {
			return fmt.Errorf("insert authors: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// ListForUser returns every book saved by userID, newest first. Books saved
// in the same instant are ordered by id.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]entities.SavedBook, error) {
	books := []entities.SavedBook{}
	err := r.db.WithContext(ctx).
		Preload("AuthorList", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Get returns one saved book if userID owns it.
func (r *Repository) Get(ctx context.Context, userID, bookID string) (*entities.SavedBook, error) {
	var book entities.SavedBook
	err := r.db.WithContext(ctx).
		Preload("AuthorList", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND user_id = ?", bookID, userID).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete removes the saved book matching both bookID and userID, together
// with its author rows. It returns ErrNotFound and changes nothing when no
// row matches, whether the id is unknown or owned by someone else.
func (r *Repository) Delete(ctx context.Context, userID, bookID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", bookID, userID).Delete(&entities.SavedBook{})
		if result.Error != nil {
			return fmt.Errorf("delete saved book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("saved_book_id = ?", bookID).Delete(&entities.SavedBookAuthor{}).Error; err != nil {
			return fmt.Errorf("delete authors: %w", err)
		}
		return nil
	})
}

// CoverRefs maps the id of every saved book with a cover to its cover URL,
// across all users.
func (r *Repository) CoverRefs(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID         string
		CoverImage string
	}
	err := r.db.WithContext(ctx).
		Model(&entities.SavedBook{}).
		Select("id, cover_image").
		Where("cover_image IS NOT NULL AND cover_image <> ''").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	refs := make(map[string]string, len(rows))
	for _, row := range rows {
		refs[row.ID] = row.CoverImage
	}
	return refs, nil
}
