// Package connection holds memcell-cli's clients.
//
// Client speaks the binary cache protocol over one TCP connection. Ring
// spreads keys over several servers with MurmurHash3 and virtual nodes, and
// Manager dials one Client per server on first use. HTTPClient talks to the
// side HTTP port for status and version queries.
package connection
