// Package auth provides authentication for the application.
//
// It supports two authentication modes:
//   - "none": No sign-in (default). Every request runs as the seeded local user.
//   - "oauth": Sign-in through an external OAuth 2.0 / OpenID identity
//     provider (Google unless the endpoint URLs are overridden), with the
//     resulting identity kept in a server-side session.
//
// # Configuration
//
//	AUTH_MODE=none   # Default, no sign-in
//	AUTH_MODE=oauth  # External identity provider
//
// For oauth mode, additional configuration:
//
//	OAUTH_CLIENT_ID=...
//	OAUTH_CLIENT_SECRET=...
//	OAUTH_REDIRECT_URL=https://books.example.com/auth/callback
//	AUTH_SESSION_SECRET=<random string>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	authMiddleware := auth.NewMiddleware(sessionManager, usersRepo, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)  // config.LocalUserID in "none" mode
package auth
