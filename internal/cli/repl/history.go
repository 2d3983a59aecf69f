package repl

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultHistorySize caps the number of remembered lines.
const DefaultHistorySize = 1000

// History is the list of lines entered at the prompt, oldest first,
// persisted to a file between sessions.
type History struct {
	lines []string
	limit int
	file  string
}

// NewHistory creates a History stored at file, or at ~/.memcell/history
// when file is empty.
func NewHistory(file string) *History {
	if file == "" {
		home, _ := os.UserHomeDir()
		file = filepath.Join(home, ".memcell", "history")
	}
	return &History{limit: DefaultHistorySize, file: file}
}

// Add records line unless it repeats the previous one.
func (h *History) Add(line string) {
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return
	}
	h.lines = append(h.lines, line)
	h.truncate()
}

func (h *History) truncate() {
	if extra := len(h.lines) - h.limit; extra > 0 {
		h.lines = append(h.lines[:0], h.lines[extra:]...)
	}
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.lines...)
}

// Expand resolves a history reference: "!!" is the last line and "!N"
// the Nth line as numbered by the history command. Lines not starting
// with "!" are returned unchanged.
func (h *History) Expand(line string) (string, error) {
	ref, ok := strings.CutPrefix(line, "!")
	if !ok {
		return line, nil
	}
	if len(h.lines) == 0 {
		return "", errors.New("history is empty")
	}
	if ref == "!" {
		return h.lines[len(h.lines)-1], nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(h.lines) {
		return "", errors.New("no such history entry: " + line)
	}
	return h.lines[n-1], nil
}

// Load appends the lines saved in the history file. A missing file is
// not an error.
func (h *History) Load() error {
	f, err := os.Open(h.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			h.lines = append(h.lines, line)
		}
	}
	h.truncate()
	return sc.Err()
}

// Save writes the history file, readable by the owner only.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}
	var b strings.Builder
	for _, line := range h.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return os.WriteFile(h.file, []byte(b.String()), 0o600)
}
