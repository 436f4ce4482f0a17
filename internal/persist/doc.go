// Package persist provides the durable key-value storage behind the
// session and preference stores.
//
// Values live in a single bbolt bucket and are promoted into an in-memory
// cache on first read. An empty path selects memory-only mode, which keeps
// the same contract without touching disk (tests, ephemeral sessions).
package persist
