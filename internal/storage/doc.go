// Package storage selects the storage engine backing the keyspace.
//
// Engines are registered by name. The only built-in engine is the
// in-memory store (package memory), registered as "memory" and under the
// memcached-compatible alias "memcached". Unknown names fall back to the
// in-memory store so that a typo in configuration never prevents startup.
package storage
