package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names for a typed prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the cache commands plus extra names.
func NewCompleter(extra ...string) *Completer {
	cmds := []string{
		"get", "set", "add", "replace", "delete",
		"status", "version",
		"help", "history", "exit", "quit",
	}
	cmds = append(cmds, extra...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Commands returns the known command names, sorted.
func (c *Completer) Commands() []string {
	return append([]string(nil), c.commands...)
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
