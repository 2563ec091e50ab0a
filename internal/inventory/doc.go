// Package inventory provides the HTTP client and domain types for the
// inventory REST backend.
//
// # Overview
//
// The package is the console's only contact with the backend. It turns HTTP
// exchanges into typed values and a small error taxonomy, and it owns the
// types every other layer shares: Product, FilterSet, PageRequest and
// QueryKey.
//
// # Files
//
//   - client.go: HTTP client, envelope normalization, bearer auth
//   - types.go: wire types mirroring the backend schema
//   - query.go: FilterSet, PageRequest and the comparable QueryKey
//   - validate.go: client-side form validation for create and update
//   - errors.go: error taxonomy and Classify
//
// # Envelope
//
// Every response is wrapped as
//
//	{"success": true, "message": "...", "data": ..., "pagination": {...}}
//
// A body with success=false is an application failure even when the HTTP
// status is 2xx. The message is surfaced verbatim as an *APIError.
//
// # Error Handling
//
//   - *TransportError: connection refused, timeout, DNS failure
//   - *APIError: success=false, or a 4xx/5xx status
//   - ErrUnauthorized: 401; the TokenStore is cleared before returning
//   - FieldErrors: produced locally by ProductDraft.Validate, never by the client
//
// Nothing is retried here. Callers decide whether to try again.
//
// # Request Handling
//
// All requests carry Accept: application/json, User-Agent: shelf/0.1, a fresh
// X-Request-ID and, when a token exists, Authorization: Bearer <token>.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package inventory
