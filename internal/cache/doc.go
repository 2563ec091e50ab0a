// Package cache holds product pages keyed by inventory.QueryKey.
//
// # Overview
//
// The cache sits between the browse layer and the HTTP client. Reads never
// block on the network: GetOrFetch answers from memory and starts fetches in
// the background. Completed fetches are announced to subscribers so the UI can
// re-render.
//
// # Freshness
//
//	age < StaleAfter             served as fresh
//	age >= StaleAfter            served as Stale, background refetch started
//	unused for EvictAfter        dropped on the next sweep
//	InvalidateList               every entry served as Stale until refetched
//
// A failed fetch keeps whatever data the entry already had and records the
// error next to it.
//
// # Ordering
//
// Every write (fetch start, patch, invalidation) takes the next value of a
// monotonic sequence counter. A fetch that completes after a newer write has
// been applied to its key is dropped, so a slow request cannot overwrite a
// patch or a fresher page. Identical concurrent fetches share one request
// through singleflight.
//
// # Patches
//
// PatchList applies a confirmed create, update or delete to every cached page
// without a round trip. Totals and page counts are adjusted in place.
//
// # Thread Safety
//
// A single sync.Mutex guards all entries. Subscribers are called without the
// lock held, on whichever goroutine changed the cache, and must not block.
package cache
