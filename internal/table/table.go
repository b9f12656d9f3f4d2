package table

import (
	"fmt"
	"strings"
)

// Table is an in-memory dataset with ordered, named columns.
// A nil cell means the value is missing.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has a column with exactly this name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns the cells of the named column in row order.
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) [][]any {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// appendRow pads or truncates rec to the header width and maps blank cells to nil.
func (t *Table) appendRow(rec []string) {
	row := make([]any, len(t.Columns))
	for j := range row {
		if j >= len(rec) {
			break
		}
		v := strings.TrimSpace(rec[j])
		if v == "" {
			continue
		}
		row[j] = v
	}
	t.Rows = append(t.Rows, row)
}

// normalizeHeader names blank header cells and disambiguates duplicates
// the way pandas does ("Unnamed: 3", "score.1").
func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	taken := make(map[string]bool, len(cells))
	next := make(map[string]int)
	for i, c := range cells {
		base := strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if base == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}
		name := base
		for taken[name] {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
