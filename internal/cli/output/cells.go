package output

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// tabulate converts data to a Table. ok is false for shapes a table
// cannot show.
func tabulate(data any, wide bool) (t *Table, ok bool) {
	v := reflect.Indirect(reflect.ValueOf(data))

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		return rowsOf(v, wide), true
	case reflect.Map:
		t = &Table{Headers: []string{"KEY", "VALUE"}}
		for it := v.MapRange(); it.Next(); {
			t.AddRow(cell(it.Key()), cell(it.Value()))
		}
		sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i][0] < t.Rows[j][0] })
		return t, true
	case reflect.Struct:
		t = &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, c := range columnsOf(v.Type(), wide) {
			t.AddRow(c.header, cell(v.Field(c.field)))
		}
		return t, true
	}
	return nil, false
}

func rowsOf(v reflect.Value, wide bool) *Table {
	elem := v.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	t := &Table{}
	if elem.Kind() != reflect.Struct {
		t.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			t.AddRow(cell(v.Index(i)))
		}
		return t
	}

	cols := columnsOf(elem, wide)
	for _, c := range cols {
		t.Headers = append(t.Headers, c.header)
	}
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		if e.Kind() == reflect.Pointer {
			if e.IsNil() {
				continue
			}
			e = e.Elem()
		}
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, cell(e.Field(c.field)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

type column struct {
	header string
	field  int
}

func columnsOf(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opt, _ := strings.Cut(sf.Tag.Get("table"), ",")
		if name == "-" || (opt == "wide" && !wide) {
			continue
		}
		if name == "" {
			name, _, _ = strings.Cut(sf.Tag.Get("json"), ",")
		}
		if name == "" || name == "-" {
			name = sf.Name
		}
		cols = append(cols, column{header: headerName(name), field: i})
	}
	return cols
}

// headerName upper-cases name and splits CamelCase words with underscores.
func headerName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// cell renders one value. Zero times, durations and strings show as "-".
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if k := v.Kind(); k == reflect.Pointer || k == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Type() {
	case timeType:
		if ts := v.Interface().(time.Time); !ts.IsZero() {
			return ts.Format(time.DateTime)
		}
		return "-"
	case durationType:
		if d := time.Duration(v.Int()); d != 0 {
			return d.String()
		}
		return "-"
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return FormatBytes(v.Bytes())
		}
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Array:
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	}
	return fmt.Sprint(v.Interface())
}

// FormatBytes renders a cache value: printable ASCII as is, anything else
// as 0x-prefixed hex. Short binary values are often valid UTF-8 by chance,
// so non-ASCII text is shown as hex too.
func FormatBytes(b []byte) string {
	if len(b) == 0 {
		return `""`
	}
	for _, c := range b {
		if (c < ' ' || c > '~') && c != '\t' {
			return "0x" + hex.EncodeToString(b)
		}
	}
	return string(b)
}
