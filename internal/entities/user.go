package entities

import "time"

// User is an identity supplied by the external identity provider. The ID is
// the provider's subject, or config.LocalUserID in single-user mode.
type User struct {
	ID        string    `gorm:"primaryKey;size:191" json:"id"`
	Name      string    `gorm:"size:256" json:"name"`
	Email     string    `gorm:"index;size:255" json:"email"`
	Image     string    `gorm:"size:2048" json:"image,omitempty"`
	Provider  string    `gorm:"size:50" json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
