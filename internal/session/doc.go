// Package session persists the bearer token between runs.
//
// The token and the profile it was issued for live in one JSON file
// (default ~/.config/shelf/credentials, mode 0600), replaced atomically on
// every write. The HTTP client clears the store when the backend answers 401,
// which sends the console back to the login view.
//
// Expiry is read from the token's exp claim without signature verification.
package session
