// Package config loads shelf's start-up configuration.
//
// # Overview
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults
//  2. A config file: ~/.config/shelf/config.toml unless a path is given
//  3. A .env file in the working directory, then SHELF_* environment variables
//
// A missing config file is not an error. shelf runs against a local backend
// with no configuration at all.
//
// # File Formats
//
// The file is TOML unless its extension is .json or .jsonc, in which case it
// is read as JSON with comments and trailing commas allowed:
//
//	api_url = "http://127.0.0.1:5000/api"
//	request_timeout = "10s"
//	page_size = 10
//	search_debounce = "300ms"
//	stale_after = "5m"
//	evict_after = "10m"
//	revalidate_every = "30s"
//	log_file = "~/.local/state/shelf/shelf.log"
//	credentials_file = "~/.config/shelf/credentials"
//
// Every key is optional. Durations use Go syntax. Empty strings fall back to
// the default.
//
// # Environment
//
// Each key has an upper-case SHELF_ variable, for example SHELF_API_URL or
// SHELF_SEARCH_DEBOUNCE. Unset or zero values leave the file value alone.
//
// # Path Expansion
//
// Paths may start with ~ and are made absolute:
//
//   - Config file location
//   - log_file
//   - credentials_file
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors other than os.ErrNotExist
//   - TOML or JSON parse errors, and malformed durations
//   - Non-positive durations, or evict_after shorter than stale_after
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//	client, err := inventory.NewClient(cfg.APIURL, inventory.ClientOptions{Timeout: cfg.RequestTimeout})
package config
