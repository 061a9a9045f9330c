// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, local user seeding
//	├── favourites/      # Saved books (the favorites store)
//	└── users/           # Identities upserted on sign-in
//
// # Backends
//
// NewDatabase picks the GORM driver from the DSN: a postgres:// or
// postgresql:// URL uses PostgreSQL, anything else is a SQLite path.
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookinfo.db")
//
//	// Create domain-specific repositories
//	favouritesRepo := favourites.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
//	// Use repositories
//	books, err := favouritesRepo.ListForUser(ctx, userID)
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
