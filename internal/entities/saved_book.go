package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthorsSeparator joins author names in the flattened SavedBook.Authors column.
const AuthorsSeparator = ", "

// SavedBook is one saved book in a user's library. Rows are never updated in
// place and are hard-deleted.
type SavedBook struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	UserID        string            `gorm:"index;size:191;not null" json:"user_id"`
	Title         string            `gorm:"type:text;not null" json:"title"`
	Authors       string            `gorm:"type:text" json:"-"` // Flattened display copy of AuthorList
	AuthorList    []SavedBookAuthor `gorm:"foreignKey:SavedBookID" json:"-"`
	Description   *string           `gorm:"type:text" json:"description"`
	PublishedDate *string           `gorm:"size:64" json:"published_date"`
	CoverImage    *string           `gorm:"size:2048" json:"cover_image"`
	User          User              `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
}

// SavedBookAuthor stores one author of a saved book in its catalog order.
type SavedBookAuthor struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	SavedBookID string `gorm:"index;size:36;not null" json:"-"`
	Position    int    `gorm:"not null" json:"-"`
	Name        string `gorm:"size:512" json:"name"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (b *SavedBook) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// SetAuthors replaces both author representations.
func (b *SavedBook) SetAuthors(names []string) {
	b.Authors = strings.Join(names, AuthorsSeparator)
	b.AuthorList = make([]SavedBookAuthor, len(names))
	for i, name := range names {
		b.AuthorList[i] = SavedBookAuthor{Position: i, Name: name}
	}
}

// AuthorNames returns the authors in catalog order. Rows written before the
// author table existed only have the flattened column; those are split on
// AuthorsSeparator, which is lossy for names containing it.
func (b *SavedBook) AuthorNames() []string {
	if len(b.AuthorList) > 0 {
		names := make([]string, len(b.AuthorList))
		for i, a := range b.AuthorList {
			names[i] = a.Name
		}
		return names
	}
	if b.Authors == "" {
		return []string{}
	}
	return strings.Split(b.Authors, AuthorsSeparator)
}
