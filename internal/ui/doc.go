// Package ui provides the terminal interface for shelf.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is the root tea.Model; it never talks
// to the backend directly. Reads go through the browse.Synchronizer and the
// cache.Cache, writes through the browse.Coordinator, and every blocking call
// runs inside a tea.Cmd.
//
// # Package Structure
//
//   - app.go: Model, Options, Update/View dispatch and Run
//   - events.go: Bridge, messages and commands
//   - products.go: product table, detail pane, search input, mutation results
//   - filters.go, form.go, confirm.go: modal dialogs
//   - login.go: sign-in and registration view
//   - activity.go: tail of shelf's own log file
//   - header.go, help.go, box.go, style_helpers.go, theme.go: rendering
//
// # Event Flow
//
//  1. A keystroke in the search input calls Synchronizer.SearchTextChanged.
//  2. After the debounce the Synchronizer publishes: it rewrites the Location,
//     asks the cache for the page and calls Bridge.SyncNotify.
//  3. Cache fetches and patches call Bridge.CacheNotify.
//  4. Both callbacks do a non-blocking send into a buffered channel; a
//     waiting tea.Cmd turns the next event into a message.
//  5. A one-second tick re-reads the cache so a dropped event is harmless.
//
// # Views
//
//   - Login: shown when no credentials are stored or the backend answers 401
//   - Products: search line, current page and a detail pane for the
//     highlighted product
//   - Activity: recent entries from the structured log file
//
// Location, the query string describing the list, is shown in the header and
// returned from Run so it can be saved with the preferences.
package ui
