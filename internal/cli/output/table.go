package output

import (
	"io"
	"strings"
	"text/tabwriter"
)

// Table is pre-built tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) { t.Headers = headers }

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) { t.Rows = append(t.Rows, cells) }

// Render writes the table with its header row.
func (t *Table) Render(w io.Writer) error { return t.render(w, true) }

func (t *Table) render(w io.Writer, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(cells []string) {
		_, _ = io.WriteString(tw, strings.Join(cells, "\t")+"\n")
	}
	if headers && len(t.Headers) > 0 {
		line(t.Headers)
	}
	for _, row := range t.Rows {
		line(row)
	}
	return tw.Flush()
}

// TableFormatter lays results out as aligned columns.
//
// A slice of structs becomes one row per element, a single struct becomes
// FIELD/VALUE rows and a map becomes sorted KEY/VALUE rows. Columns come
// from exported fields: the `table` tag names a column, "-" hides it and
// ",wide" shows it only when Wide is set. Untagged fields use their json
// name. Anything else is written as JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch t := data.(type) {
	case nil:
		return nil
	case *Table:
		return t.render(w, !f.NoHeaders)
	case Table:
		return t.render(w, !f.NoHeaders)
	}

	t, ok := tabulate(data, f.Wide)
	if !ok {
		return writeJSON(w, data)
	}
	return t.render(w, !f.NoHeaders)
}
