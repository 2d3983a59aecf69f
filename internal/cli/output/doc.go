// Package output renders memcell-cli results as a table, JSON or YAML.
//
// Cache values are bytes. Tables print them as text when they are valid
// UTF-8 without control characters, and as hex otherwise.
package output
