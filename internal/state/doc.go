// Package state tracks the console's connection to the inventory backend.
//
// # Overview
//
// The revalidator in internal/app probes GET /auth/me on a timer and records
// the outcome here. The UI reads a Snapshot on every render to draw the
// header badge (signed-in user, offline marker, expired session).
//
// # Architecture
//
//	Producer (revalidator):        Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ client.Me()    │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  wait backoff  │            │  render header  │
//	└────────────────┘            └─────────────────┘
//
// Login and logout in the UI write through SignedIn and SignedOut so the
// header changes before the next probe.
//
// # Update Semantics
//
//	store.Update(&user, nil)
//	→ User = user, HasUser = true, LastError = nil, failures reset
//
//	store.Update(nil, err)
//	→ User unchanged, LastError = err, ConsecutiveFailures++
//
//	store.Update(nil, ErrUnauthorized)
//	→ User dropped, SessionExpired = true, failures reset
//
// A 401 proves the backend is reachable, so it never counts toward
// IsOffline, which needs two consecutive failures.
//
// # Concurrency Model
//
// A sync.RWMutex guards the snapshot. Snapshot copies it and wraps the
// error so callers never share the stored instance. The zero Store is ready
// to use.
package state
