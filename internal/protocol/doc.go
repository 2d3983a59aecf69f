// Package protocol implements the memcell binary wire codec.
//
// The format is a subset of the memcached binary protocol. Every frame starts
// with a fixed 24-byte big-endian header followed by a variable-length body
// made of extras, key and value:
//
//	Byte/     0       |       1       |       2       |       3       |
//	   /              |               |               |               |
//	  |0 1 2 3 4 5 6 7|0 1 2 3 4 5 6 7|0 1 2 3 4 5 6 7|0 1 2 3 4 5 6 7|
//	  +---------------+---------------+---------------+---------------+
//	 0| Magic         | Opcode        | Key length                    |
//	  +---------------+---------------+---------------+---------------+
//	 4| Extras length | Data type     | Status / reserved             |
//	  +---------------+---------------+---------------+---------------+
//	 8| Total body length                                             |
//	  +---------------+---------------+---------------+---------------+
//	12| Opaque                                                        |
//	  +---------------+---------------+---------------+---------------+
//	16| CAS                                                           |
//	  |                                                               |
//	  +---------------+---------------+---------------+---------------+
//
// The codec is pure: it never touches sockets or storage. Framing problems
// are reported as errors wrapping ErrFormat; the connection layer decides
// whether to wait for more bytes or drop them.
package protocol
