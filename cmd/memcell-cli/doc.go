// Package main provides the entry point for memcell-cli.
//
// memcell-cli reads and writes keys on memcell servers over the binary
// protocol and queries their HTTP port for status:
//
//	memcell-cli set --ttl 30s greeting hello
//	memcell-cli get greeting
//	memcell-cli -s 10.0.0.1:11211 -s 10.0.0.2:11211 -o json get a b c
//	memcell-cli status
//	memcell-cli repl
//
// With several --server flags keys are spread over the servers by a
// consistent hash ring.
package main
