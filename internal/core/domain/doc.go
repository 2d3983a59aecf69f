// Package domain defines the core domain model of memcell.
//
// Domain types are plain values without IO dependencies:
//
//   - Entry: the value stored under a key, with its flags and TTL
//   - Limits: key and value size constraints enforced before storage
//   - Errors: typed errors shared by the server and the client
package domain
