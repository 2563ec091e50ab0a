// Package logtail reads the end of shelf's own log file for the activity view.
//
// # Overview
//
// shelf logs JSON lines through zap. The activity view shows the most recent
// ones, so this package provides:
//
//  1. Read: the last N lines of a file
//  2. Parse/ReadEntries: those lines decoded into Entry values
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) however large the log grows:
//
//  1. Allocate ring buffer of size maxLines
//  2. For each line in file:
//     - Store line at current index
//     - Increment index (wrapping at maxLines)
//     - Track total lines seen
//  3. If total < maxLines:
//     - Return first 'count' entries from buffer
//  4. If total >= maxLines:
//     - Return buffer starting from current index (oldest line)
//
// A non-positive maxLines returns the whole file. A missing file returns no
// lines and no error, which is the normal state before anything was logged.
//
// # Entries
//
// A zap line such as
//
//	{"level":"info","ts":"2025-10-08T21:01:05.123Z","logger":"mutate","msg":"product created","product_id":"p1"}
//
// becomes Entry{Level: "info", Logger: "mutate", Msg: "product created",
// Fields: {"product_id": "p1"}}. Lines that are not JSON, such as a panic
// trace, are kept with the whole line as Msg.
//
// Styling is left to the ui package.
package logtail
