package config

const (
	// DefaultDatabasePath is the default SQLite file for the application database
	DefaultDatabasePath = "./bookinfo.db"

	// LocalUserID owns every saved book when AUTH_MODE=none
	LocalUserID = "local"

	// LocalUserName is shown for the local user
	LocalUserName = "Guest"
)
