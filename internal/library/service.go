// Package library implements the four book operations the application
// exposes: catalog lookup, save, list and delete. Every failure is logged
// with its cause and returned as an *Error carrying one of the error kinds
// and a plain user-facing message.
package library

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/database/favourites"
	"github.com/mrlokans/bookinfo/internal/entities"
	"github.com/mrlokans/bookinfo/internal/logger"
	"github.com/mrlokans/bookinfo/internal/metrics"
)

// Store persists saved books.
type Store interface {
	Save(ctx context.Context, userID string, input favourites.BookInput) (*entities.SavedBook, error)
	ListForUser(ctx context.Context, userID string) ([]entities.SavedBook, error)
	Get(ctx context.Context, userID, bookID string) (*entities.SavedBook, error)
	Delete(ctx context.Context, userID, bookID string) error
}

// CoverWarmer schedules fetching a saved book's cover into the local cache.
type CoverWarmer interface {
	EnqueueCoverWarm(ctx context.Context, bookID, coverURL string) error
}

// CoverInvalidator drops the cached cover of a deleted book.
type CoverInvalidator interface {
	Invalidate(bookID string) error
}

var _ Store = (*favourites.Repository)(nil)

// SaveInput is the payload of Save. UserID always comes from the
// authenticated caller.
type SaveInput struct {
	UserID        string
	Title         string
	Authors       []string
	Description   *string
	PublishedDate *string
	CoverImage    *string
}

// SavedBook is a saved book as returned to clients, with authors as a list.
type SavedBook struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	Description   *string   `json:"description"`
	PublishedDate *string   `json:"publishedDate"`
	CoverImage    *string   `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
}

func fromEntity(b *entities.SavedBook) SavedBook {
	return SavedBook{
		ID:            b.ID,
		UserID:        b.UserID,
		Title:         b.Title,
		Authors:       b.AuthorNames(),
		Description:   b.Description,
		PublishedDate: b.PublishedDate,
		CoverImage:    b.CoverImage,
		CreatedAt:     b.CreatedAt,
	}
}

type Service struct {
	catalog catalog.Provider
	store   Store
	covers  CoverWarmer
	cache   CoverInvalidator
	metrics metrics.Recorder
}

type Option func(*Service)

// WithCoverWarmer enqueues a cover warm-up after every successful save.
func WithCoverWarmer(w CoverWarmer) Option {
	return func(s *Service) { s.covers = w }
}

// WithCoverInvalidator removes a book's cached cover after it is deleted.
func WithCoverInvalidator(c CoverInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func NewService(provider catalog.Provider, store Store, opts ...Option) *Service {
	s := &Service{
		catalog: provider,
		store:   store,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProviderName reports which catalog backs Lookup.
func (s *Service) ProviderName() string {
	return s.catalog.Name()
}

// Lookup searches the catalog by title. No matches is an empty slice and a
// nil error.
func (s *Service) Lookup(ctx context.Context, title string) ([]catalog.Book, error) {
	const op = "lookup"
	start := time.Now()

	books, err := s.catalog.SearchByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyTitle) {
			s.metrics.ObserveCatalogLookup(s.catalog.Name(), metrics.OutcomeInvalid, time.Since(start))
			return nil, newError(ErrInvalidInput, op, MsgTitleRequired, err)
		}
		s.metrics.ObserveCatalogLookup(s.catalog.Name(), metrics.OutcomeError, time.Since(start))
		logger.L.Error("Catalog lookup failed",
			zap.String("op", op),
			zap.String("provider", s.catalog.Name()),
			zap.String("title", title),
			zap.Error(err))
		return nil, newError(ErrUpstreamFetch, op, MsgFetchFailed, err)
	}

	s.metrics.ObserveCatalogLookup(s.catalog.Name(), metrics.OutcomeSuccess, time.Since(start))
	if books == nil {
		books = []catalog.Book{}
	}
	return books, nil
}

// Save stores one book for in.UserID. Duplicates are allowed.
func (s *Service) Save(ctx context.Context, in SaveInput) (*SavedBook, error) {
	const op = "save"

	if strings.TrimSpace(in.UserID) == "" {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeInvalid)
		return nil, newError(ErrInvalidInput, op, MsgUserIDRequired, nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeInvalid)
		return nil, newError(ErrInvalidInput, op, MsgTitleRequired, nil)
	}
	authors := in.Authors
	if authors == nil {
		authors = []string{}
	}

	saved, err := s.store.Save(ctx, in.UserID, favourites.BookInput{
		Title:         in.Title,
		Authors:       authors,
		Description:   in.Description,
		PublishedDate: in.PublishedDate,
		CoverImage:    in.CoverImage,
	})
	if err != nil {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeError)
		logger.L.Error("Failed to save book",
			zap.String("op", op),
			zap.String("user_id", in.UserID),
			zap.String("title", in.Title),
			zap.Error(err))
		return nil, newError(ErrPersistence, op, MsgSaveFailed, err)
	}
	s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeSuccess)

	if s.covers != nil && saved.CoverImage != nil && *saved.CoverImage != "" {
		if err := s.covers.EnqueueCoverWarm(ctx, saved.ID, *saved.CoverImage); err != nil {
			logger.L.Warn("Failed to enqueue cover warm-up",
				zap.String("book_id", saved.ID),
				zap.Error(err))
		}
	}

	book := fromEntity(saved)
	return &book, nil
}

// List returns the caller's saved books, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]SavedBook, error) {
	const op = "list"

	if strings.TrimSpace(userID) == "" {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeInvalid)
		return nil, newError(ErrInvalidInput, op, MsgUserIDRequired, nil)
	}

	rows, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeError)
		logger.L.Error("Failed to list saved books",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, newError(ErrPersistence, op, MsgListFailed, err)
	}
	s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeSuccess)

	books := make([]SavedBook, len(rows))
	for i := range rows {
		books[i] = fromEntity(&rows[i])
	}
	return books, nil
}

// Get returns one of the caller's saved books.
func (s *Service) Get(ctx context.Context, userID, bookID string) (*SavedBook, error) {
	const op = "get"

	row, err := s.store.Get(ctx, userID, bookID)
	if errors.Is(err, favourites.ErrNotFound) {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeNotFound)
		return nil, newError(ErrNotFoundOrUnauthorized, op, MsgNotFound, err)
	}
	if err != nil {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeError)
		logger.L.Error("Failed to load saved book",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.String("book_id", bookID),
			zap.Error(err))
		return nil, newError(ErrPersistence, op, MsgListFailed, err)
	}
	s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeSuccess)

	book := fromEntity(row)
	return &book, nil
}

// Delete removes one of the caller's saved books. An unknown id and a book
// owned by someone else are indistinguishable.
func (s *Service) Delete(ctx context.Context, userID, bookID string) error {
	const op = "delete"

	if strings.TrimSpace(userID) == "" {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeInvalid)
		return newError(ErrInvalidInput, op, MsgUserIDRequired, nil)
	}

	err := s.store.Delete(ctx, userID, bookID)
	if errors.Is(err, favourites.ErrNotFound) {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeNotFound)
		logger.L.Info("Delete matched no saved book",
			zap.String("user_id", userID),
			zap.String("book_id", bookID))
		return newError(ErrNotFoundOrUnauthorized, op, MsgNotFound, err)
	}
	if err != nil {
		s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeError)
		logger.L.Error("Failed to delete saved book",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.String("book_id", bookID),
			zap.Error(err))
		return newError(ErrPersistence, op, MsgDeleteFailed, err)
	}
	s.metrics.ObserveFavouritesOperation(op, metrics.OutcomeSuccess)

	// Leftovers are removed by the prune schedule.
	if s.cache != nil {
		if err := s.cache.Invalidate(bookID); err != nil {
			logger.L.Warn("Failed to invalidate cached cover",
				zap.String("book_id", bookID),
				zap.Error(err))
		}
	}
	return nil
}
