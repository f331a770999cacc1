// Package table provides a minimal column-ordered tabular structure used
// for CSV round-trips and for coercing structured JSON into rows.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// Table is an ordered set of named columns with string cells. It carries no
// type information; callers coerce cells as needed.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// Column returns the values of the named column and whether it exists.
func (t *Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[idx])
	}
	return out, true
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses CSV input whose first record is the header row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// FromJSON coerces a decoded JSON value into a Table. Two orientations are
// accepted: a sequence of records ([]map, one row per element) and a column
// mapping (map of column name to a sequence of values). Columns are ordered
// lexicographically since Go map iteration order is unspecified. Missing
// cells are empty strings.
func FromJSON(v any) (*Table, error) {
	switch data := v.(type) {
	case []any:
		return fromRecords(data)
	case map[string]any:
		return fromColumns(data)
	case []map[string]any:
		records := make([]any, len(data))
		for i, m := range data {
			records[i] = m
		}
		return fromRecords(records)
	default:
		return nil, fmt.Errorf("cannot build table from %T", v)
	}
}

func fromRecords(records []any) (*Table, error) {
	colSet := map[string]bool{}
	maps := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		m, ok := rec.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, not an object", i, rec)
		}
		for k := range m {
			colSet[k] = true
		}
		maps = append(maps, m)
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := &Table{Columns: cols}
	for _, m := range maps {
		row := make([]string, len(cols))
		for i, c := range cols {
			if val, ok := m[c]; ok {
				row[i] = renderCell(val)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func fromColumns(columns map[string]any) (*Table, error) {
	cols := make([]string, 0, len(columns))
	for k := range columns {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	values := make([][]any, len(cols))
	height := -1
	for i, c := range cols {
		seq, ok := columns[c].([]any)
		if !ok {
			return nil, fmt.Errorf("column %q is %T, not a sequence", c, columns[c])
		}
		if height == -1 {
			height = len(seq)
		} else if len(seq) != height {
			return nil, fmt.Errorf("column %q has %d values, want %d", c, len(seq), height)
		}
		values[i] = seq
	}
	if height < 0 {
		height = 0
	}

	t := &Table{Columns: cols}
	for r := 0; r < height; r++ {
		row := make([]string, len(cols))
		for i := range cols {
			row[i] = renderCell(values[i][r])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// renderCell turns a decoded JSON scalar into its cell text. JSON numbers
// keep their shortest representation; composite values fall back to their
// JSON encoding.
func renderCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
