// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT or SIGTERM, a cancelled context or an
// explicit Trigger, then runs the registered hooks in reverse order under
// one timeout. The server registers the event loop before its listeners,
// so connections drain while the keyspace is still being served.
package shutdown
