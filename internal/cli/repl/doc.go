// Package repl runs memcell-cli's interactive mode.
//
// Each input line is split shell-style (single and double quotes, backslash
// escapes) and handed to an Executor, normally the CLI's own command tree,
// so `set --ttl 5s k "hello world"` behaves the same typed at the prompt or
// on the command line. History persists across sessions, and "!!" or
// "!N" re-runs an earlier line.
package repl
