// Package cmap provides a sharded map that is safe for concurrent use.
//
// The binary server keeps its live connections in one: accept goroutines
// add, connection goroutines remove themselves and shutdown closes
// whatever is left.
package cmap
