// Package store holds the in-memory entry pool. It provides a thread-safe
// map from generated entry ID to an immutable Entry carrying its creation
// time and lifetime. Expiry is not enforced here; the collector package
// removes expired entries through IDs and DeleteIfExpired.
package store
