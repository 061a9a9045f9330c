package favourites

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookinfo/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_favourites_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.SavedBook{},
		&entities.SavedBookAuthor{},
	)
	require.NoError(t, err)

	require.NoError(t, db.Create(&entities.User{ID: "alice", Name: "Alice"}).Error)
	require.NoError(t, db.Create(&entities.User{ID: "bob", Name: "Bob"}).Error)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func strPtr(s string) *string { return &s }

func TestRepository_Save(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.Save(ctx, "alice", BookInput{
		Title:         "Good Omens",
		Authors:       []string{"Terry Pratchett", "Neil Gaiman"},
		Description:   strPtr("The world ends on Saturday."),
		PublishedDate: strPtr("1990"),
	})
	require.NoError(t, err)

	assert.Len(t, book.ID, 36)
	assert.Equal(t, "alice", book.UserID)
	assert.Equal(t, "Terry Pratchett, Neil Gaiman", book.Authors)
	assert.Nil(t, book.CoverImage)
	assert.False(t, book.CreatedAt.IsZero())

	var authorRows int64
	db.Model(&entities.SavedBookAuthor{}).Where("saved_book_id = ?", book.ID).Count(&authorRows)
	assert.Equal(t, int64(2), authorRows)
}

func TestRepository_Save_AuthorRoundTrip(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name    string
		authors []string
	}{
		{"none", []string{}},
		{"single", []string{"Ursula K. Le Guin"}},
		{"several", []string{"A", "B", "C"}},
		{"name containing separator", []string{"Strunk, Jr., William", "White, E. B."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := repo.Save(ctx, "alice", BookInput{Title: tt.name, Authors: tt.authors})
			require.NoError(t, err)

			got, err := repo.Get(ctx, "alice", saved.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.authors, got.AuthorNames())
		})
	}
}

func TestRepository_Save_DuplicatesAllowed(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.Save(ctx, "alice", BookInput{Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)
	second, err := repo.Save(ctx, "alice", BookInput{Title: "Dune", Authors: []string{"Frank Herbert"}})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	books, err := repo.ListForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestRepository_ListForUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	older, err := repo.Save(ctx, "alice", BookInput{Title: "Older", Authors: []string{"X"}})
	require.NoError(t, err)
	newer, err := repo.Save(ctx, "alice", BookInput{Title: "Newer", Authors: []string{"Y", "Z"}})
	require.NoError(t, err)
	_, err = repo.Save(ctx, "bob", BookInput{Title: "Bob's", Authors: []string{"W"}})
	require.NoError(t, err)

	// Pin timestamps so ordering doesn't depend on clock resolution.
	now := time.Now()
	db.Model(&entities.SavedBook{}).Where("id = ?", older.ID).Update("created_at", now.Add(-time.Hour))
	db.Model(&entities.SavedBook{}).Where("id = ?", newer.ID).Update("created_at", now)

	books, err := repo.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Newer", books[0].Title)
	assert.Equal(t, []string{"Y", "Z"}, books[0].AuthorNames())
	assert.Equal(t, "Older", books[1].Title)

	for _, b := range books {
		assert.Equal(t, "alice", b.UserID)
	}
}

func TestRepository_ListForUser_Empty(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	books, err := repo.ListForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestRepository_Delete(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.Save(ctx, "alice", BookInput{Title: "Gone", Authors: []string{"A", "B"}})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "alice", book.ID))

	_, err = repo.Get(ctx, "alice", book.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var authorRows int64
	db.Model(&entities.SavedBookAuthor{}).Where("saved_book_id = ?", book.ID).Count(&authorRows)
	assert.Zero(t, authorRows)

	// Second delete of the same id finds nothing.
	assert.ErrorIs(t, repo.Delete(ctx, "alice", book.ID), ErrNotFound)
}

func TestRepository_Delete_OtherUsersBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.Save(ctx, "alice", BookInput{Title: "Mine", Authors: []string{"A"}})
	require.NoError(t, err)

	err = repo.Delete(ctx, "bob", book.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	books, err := repo.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)
	assert.Equal(t, []string{"A"}, books[0].AuthorNames())
}

func TestRepository_Delete_UnknownID(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Delete(context.Background(), "alice", "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Get_OtherUser(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.Save(ctx, "alice", BookInput{Title: "Private", Authors: nil})
	require.NoError(t, err)

	_, err = repo.Get(ctx, "bob", book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CoverRefs(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	withCover, err := repo.Save(ctx, "alice", BookInput{Title: "Covered", CoverImage: strPtr("http://img/1")})
	require.NoError(t, err)
	_, err = repo.Save(ctx, "bob", BookInput{Title: "Bare"})
	require.NoError(t, err)
	otherCover, err := repo.Save(ctx, "bob", BookInput{Title: "Also covered", CoverImage: strPtr("http://img/2")})
	require.NoError(t, err)

	refs, err := repo.CoverRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		withCover.ID:  "http://img/1",
		otherCover.ID: "http://img/2",
	}, refs)
}

func TestRepository_ListForUser_SameInstantOrderedByID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	savedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{
		"00000000-0000-4000-8000-000000000001",
		"00000000-0000-4000-8000-000000000003",
		"00000000-0000-4000-8000-000000000002",
	} {
		require.NoError(t, db.Create(&entities.SavedBook{
			ID:        id,
			UserID:    "alice",
			Title:     "Same instant",
			CreatedAt: savedAt,
		}).Error)
	}

	books, err := repo.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "00000000-0000-4000-8000-000000000003", books[0].ID)
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", books[1].ID)
	assert.Equal(t, "00000000-0000-4000-8000-000000000001", books[2].ID)
}
