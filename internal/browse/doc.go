// Package browse owns what the product list is showing and how it changes.
//
// # Overview
//
// Three inputs feed one State: the location restored at start-up, debounced
// search keystrokes and explicit filter or page submissions. The Synchronizer
// merges them and publishes each distinct State exactly once. The Coordinator
// runs create, update and delete requests and patches the cache with the
// confirmed result.
//
// # Publishing
//
// Publishing does two things under the Synchronizer lock, never one without
// the other:
//
//  1. the Location is rewritten with EncodeState
//  2. the cache is asked for the page at the new QueryKey
//
// Subscribers then receive an Event. A transition that leaves the committed
// filters and page unchanged publishes nothing.
//
// # Debounce
//
// Search input is an explicit state machine:
//
//	Idle ──keystroke──▶ PendingCommit(text, gen)
//	PendingCommit ──keystroke──▶ PendingCommit(text', gen+1)
//	PendingCommit ──timer(gen)──▶ Idle + publish
//	PendingCommit ──ClearSearch/Close──▶ Idle
//
// Timers carry the generation they were armed with. A timer that fires after
// its generation was superseded is ignored.
//
// # Location
//
//	search=lamp&category=Home&minPrice=10&maxPrice=50&inStock=true&page=2
//
// Empty fields are omitted, inStock only appears when true and page only
// when above 1. ParseLocation(EncodeState(s)) reproduces s for any committed
// state. Malformed values read as absent.
//
// # Price Range
//
// A minimum above the maximum is accepted and passed to the backend, which
// returns no rows. FilterSet.PriceRangeInverted lets the UI flag it.
package browse
