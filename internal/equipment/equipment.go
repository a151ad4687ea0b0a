// Package equipment loads the tabular equipment listing that accompanies a
// manifest. The only column it interprets is the container identifier.
package equipment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeyColumn is the container identifier header, matched ignoring case and spaces.
const KeyColumn = "ContainerNumber"

var ErrMissingKeyColumn = errors.New("equipment table has no ContainerNumber column")

// Table is a loaded equipment listing.
type Table struct {
	Header []string
	Rows   [][]string
	key    int
	index  map[string]int
}

// Load reads a CSV with a header row. Rows may be ragged.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingKeyColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read equipment header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	key := -1
	for i, h := range header {
		if normalize(h) == normalize(KeyColumn) {
			key = i
			break
		}
	}
	if key < 0 {
		return nil, ErrMissingKeyColumn
	}
	t := &Table{Header: header, key: key, index: map[string]int{}}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read equipment row: %w", err)
		}
		t.Rows = append(t.Rows, row)
		if id := t.id(row); id != "" {
			if _, dup := t.index[id]; !dup {
				t.index[id] = len(t.Rows) - 1
			}
		}
	}
	return t, nil
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether containerNumber appears in the key column.
func (t *Table) Has(containerNumber string) bool {
	_, ok := t.index[strings.TrimSpace(containerNumber)]
	return ok
}

// Row returns the first row for containerNumber as header -> value.
func (t *Table) Row(containerNumber string) (map[string]string, bool) {
	i, ok := t.index[strings.TrimSpace(containerNumber)]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(t.Header))
	for j, h := range t.Header {
		if j < len(t.Rows[i]) {
			out[h] = t.Rows[i][j]
		}
	}
	return out, true
}

// Unlisted returns the numbers, in input order, that the table does not list.
func (t *Table) Unlisted(numbers []string) []string {
	var out []string
	for _, n := range numbers {
		if !t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (t *Table) id(row []string) string {
	if t.key >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[t.key])
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
