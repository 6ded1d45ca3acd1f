// Package store holds the displayed collection for one mount of the view.
//
// A Store is single use: New → Activate → Deactivate. Activate resets the
// collection to empty and starts exactly one fetch. When the fetch settles
// the result is committed only if the activation's lease is still valid;
// Deactivate revokes the lease, so a late result is dropped without touching
// state, notifying observers, or raising an error. Deactivate never cancels
// the request itself.
//
// Fetch failures are not recovered. They go to the error handler (by default
// an ERROR log line) whether or not the store is still active, and Wait
// returns them. The collection keeps its prior value.
package store
