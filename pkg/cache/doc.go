// Package cache provides a generic in-memory cache with per-entry TTL.
//
// It backs the notifier's read-through caches (unread counts, recent
// notification lists). Entries are caches only: callers must tolerate
// staleness up to the TTL and never treat the cache as a source of truth.
package cache
