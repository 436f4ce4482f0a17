// Package query implements the debounced query controller behind every
// filtered, paginated listing.
//
// Filter changes are recorded immediately but only settle after a quiet
// period: a burst of changes inside the window produces exactly one fetch,
// for the last filters. Every settled fetch gets a sequence number, and only
// the response of the most recent one is ever applied. Responses of
// superseded fetches are discarded whatever order they arrive in
// (last-settled-wins).
//
// A failed fetch leaves the previous result visible and records the error,
// unless the controller was built with [ClearResults].
package query
