// Package app provides the orchestration layer for shelf.
//
// # Overview
//
// This package wires together configuration, logging, the session store, the
// inventory client, the list cache and the UI. It is the composition root:
// every long-lived dependency is built here and handed to the packages that
// use it.
//
// # Architecture
//
// Open builds the pieces shared by the TUI and the one-shot CLI commands:
//
//  1. Load ~/.config/shelf/config.toml, a .env file and SHELF_* variables
//  2. Open the JSON log file
//  3. Load the saved bearer token from the credentials file
//  4. Create the inventory API client and the list cache
//
// Run adds the interactive parts on top:
//
//  1. Load prefs.toml (theme and last location)
//  2. Create the Synchronizer, the mutation Coordinator and the UI bridge
//  3. Start the session revalidator and the TUI in one errgroup
//  4. Save the theme and location back to prefs.toml on exit
//
// # Components
//
//   - app.go: Env, Open and Run
//   - revalidator.go: background session probe with exponential backoff
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> Open()              config, logger, session, client, cache
//	       ├─────> prefs.Load()        theme, last_location
//	       ├─────> NewSynchronizer()   location and debounce
//	       ├─────> runRevalidator()    GET /auth/me, cache sweep
//	       └─────> ui.Run()            TUI (blocks)
//
// # Error Handling
//
// Fatal errors (returned from Open or Run):
//   - Invalid configuration file or environment values
//   - Log file or credentials file that cannot be opened
//   - Terminal failures from the UI
//
// Recoverable errors (logged, the UI keeps running):
//   - Backend unreachable; the header shows OFFLINE and probes back off
//   - Expired token; the UI returns to the login view
//   - Prefs that cannot be read or written
package app
