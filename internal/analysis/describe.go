package analysis

import (
	"github.com/spf13/cast"

	"github.com/KaramelBytes/tabviz/internal/table"
)

// Describe is the per-column descriptive statistics block of a numeric column.
// Std is nil when fewer than two values exist.
type Describe struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	Q1     float64  `json:"25%"`
	Median float64  `json:"50%"`
	Q3     float64  `json:"75%"`
	Max    float64  `json:"max"`
}

// Summary returns descriptive statistics keyed by numerical column name.
func (r *Report) Summary() map[string]Describe {
	out := make(map[string]Describe)
	for _, c := range r.Cols {
		if !c.Numerical() {
			continue
		}
		out[c.Name] = c.Describe()
	}
	return out
}

// Describe returns the statistics block of c. Count covers the numeric
// cells only, the same cells the other statistics are computed from.
func (c ColumnSummary) Describe() Describe {
	d := Describe{Count: c.NumericCount, Mean: c.Mean, Min: c.Min, Q1: c.Q1, Median: c.Median, Q3: c.Q3, Max: c.Max}
	if c.NumericCount > 1 {
		std := c.Std
		d.Std = &std
	}
	return d
}

// ColumnTypes splits columns into numerical and categorical ones.
// A column is numerical only when all of its values are numbers; any other
// column holding at least one value counts as categorical.
func (r *Report) ColumnTypes() (numerical, categorical []string) {
	numerical, categorical = []string{}, []string{}
	for _, c := range r.Cols {
		switch {
		case c.Numerical():
			numerical = append(numerical, c.Name)
		case c.Kind != KindUnknown:
			categorical = append(categorical, c.Name)
		}
	}
	return numerical, categorical
}

// Preview renders the first n rows of t as records. Cells of numeric
// columns become numbers when they parse, missing cells become nil.
func (r *Report) Preview(t *table.Table, n int) []map[string]any {
	head := t.Head(n)
	out := make([]map[string]any, 0, len(head))
	for _, row := range head {
		rec := make(map[string]any, len(t.Columns))
		for j, name := range t.Columns {
			var cell any
			if j < len(row) {
				cell = row[j]
			}
			rec[name] = r.previewCell(j, cell)
		}
		out = append(out, rec)
	}
	return out
}

func (r *Report) previewCell(j int, cell any) any {
	if cell == nil {
		return nil
	}
	if j >= len(r.Cols) || !r.Cols[j].Numerical() {
		return cell
	}
	if s, ok := cell.(string); ok {
		if x, ok := ParseNumber(s); ok {
			return x
		}
		return s
	}
	if x, err := cast.ToFloat64E(cell); err == nil {
		return x
	}
	return cell
}
