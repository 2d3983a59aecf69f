// Package eventloop provides the single logical thread that owns the cache
// keyspace.
//
// Connection goroutines hand work to the loop with Do and wait for it to
// finish, so requests from one connection run in arrival order and no two
// storage operations ever overlap. Timers created with AfterFunc deliver
// their callback as a loop task, which makes expiry callbacks serialize
// with request handling in the same way.
//
// ManualClock is a deterministic Scheduler for tests: time only moves when
// Advance is called, and due callbacks run synchronously.
package eventloop
