// Package memory provides the in-memory keyspace of memcell.
//
// The Store maps keys to entries and owns one PendingExpiry per key that was
// stored with a TTL. Expiry is eager: a scheduled callback removes the entry
// when its TTL elapses, and lookups never compare timestamps themselves.
//
// Thread Safety:
//
// The Store takes no locks. Every call, including the scheduler's expiry
// callbacks, must run on the same logical thread; in the server that thread
// is the event loop (package eventloop).
package memory
