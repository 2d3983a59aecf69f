// Package binserver serves the memcached-style binary protocol.
//
// Each client connection runs on its own goroutine and buffers inbound
// bytes until a whole frame is available. Frames are executed one at a time
// on the shared event loop, which owns the keyspace, so a connection sees
// its responses in request order and storage is never touched concurrently.
//
// Frames whose magic byte is not a request magic are discarded together
// with everything buffered behind them, and produce no response.
package binserver
