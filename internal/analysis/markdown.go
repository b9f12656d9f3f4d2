package analysis

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

const (
	maxCorrPairs = 10
	maxCellWidth = 80
)

var describeStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Markdown renders the report as plain text sections for terminals or files.
func (r *Report) Markdown() string {
	var b strings.Builder
	r.writeOverview(&b)
	r.writeSchema(&b)
	r.writeDescribe(&b)
	r.writeCorrelations(&b)
	r.writeSamples(&b)
	if len(r.Warnings) > 0 {
		section(&b, "NOTES")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func section(b *strings.Builder, name string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "[%s]\n", name)
}

func (r *Report) writeOverview(b *strings.Builder) {
	section(b, "DATASET SUMMARY")
	if r.Name != "" {
		fmt.Fprintf(b, "File: %s\n", r.Name)
	}
	switch {
	case r.Processed > 0 && r.Processed < r.Rows:
		fmt.Fprintf(b, "Rows: ~%d (processed %d)\n", r.Rows, r.Processed)
	case r.Rows > 0:
		fmt.Fprintf(b, "Rows: %d\n", r.Rows)
	}
	num, cat := r.ColumnTypes()
	fmt.Fprintf(b, "Columns: %d\n", len(r.Cols))
	fmt.Fprintf(b, "Numerical: %s\n", nameList(num))
	fmt.Fprintf(b, "Categorical: %s\n", nameList(cat))
}

func (r *Report) writeSchema(b *strings.Builder) {
	section(b, "SCHEMA")
	for _, c := range r.Cols {
		missing := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missing = float64(c.Missing) * 100 / float64(total)
		}
		fmt.Fprintf(b, "- %s: %s (non-null %d, missing %.1f%%)%s\n",
			displayName(c), c.Kind, c.NonNull, missing, columnDetail(c))
	}
}

// writeDescribe prints one column per numeric column and one row per statistic.
func (r *Report) writeDescribe(b *strings.Builder) {
	numeric := lo.Filter(r.Cols, func(c ColumnSummary, _ int) bool { return c.Kind == KindNumeric })
	if len(numeric) == 0 {
		return
	}
	section(b, "DESCRIBE")
	header := append([]string{"stat"}, lo.Map(numeric, func(c ColumnSummary, _ int) string { return cleanName(c.Name) })...)
	blocks := lo.Map(numeric, func(c ColumnSummary, _ int) Describe { return c.Describe() })
	rows := lo.Map(describeStats, func(stat string, _ int) []string {
		return append([]string{stat}, lo.Map(blocks, func(d Describe, _ int) string { return d.format(stat) })...)
	})
	writeTable(b, header, rows)
}

func (d Describe) format(stat string) string {
	var v float64
	switch stat {
	case "count":
		return fmt.Sprint(d.Count)
	case "mean":
		v = d.Mean
	case "std":
		if d.Std == nil {
			return "-"
		}
		v = *d.Std
	case "min":
		v = d.Min
	case "25%":
		v = d.Q1
	case "50%":
		v = d.Median
	case "75%":
		v = d.Q3
	case "max":
		v = d.Max
	}
	return fmt.Sprintf("%.4g", v)
}

func (r *Report) writeCorrelations(b *strings.Builder) {
	if r.Corr == nil || len(r.Corr.Columns) < 2 {
		return
	}
	type pair struct {
		a, b string
		r    float64
	}
	var pairs []pair
	cols := r.Corr.Columns
	for i := range cols {
		for j := i + 1; j < len(cols); j++ {
			pairs = append(pairs, pair{cols[i], cols[j], r.Corr.Values[i][j]})
		}
	}
	slices.SortStableFunc(pairs, func(x, y pair) int {
		ax, ay := math.Abs(x.r), math.Abs(y.r)
		switch {
		case ax > ay:
			return -1
		case ax < ay:
			return 1
		}
		return strings.Compare(x.a+x.b, y.a+y.b)
	})
	section(b, "CORRELATIONS")
	for _, p := range pairs[:min(len(pairs), maxCorrPairs)] {
		fmt.Fprintf(b, "- %s ~ %s: r=%.3f\n", p.a, p.b, p.r)
	}
}

func (r *Report) writeSamples(b *strings.Builder) {
	if len(r.Samples) == 0 {
		return
	}
	section(b, "HEAD AND SAMPLE ROWS")
	header := lo.Map(r.Cols, func(c ColumnSummary, _ int) string { return cleanName(c.Name) })
	rows := lo.Map(r.Samples, func(row []any, _ int) []string {
		cells := make([]string, len(r.Cols))
		for i := range cells {
			if i < len(row) && row[i] != nil {
				cells[i] = cleanCell(cast.ToString(row[i]))
			}
		}
		return cells
	})
	writeTable(b, header, rows)
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	writeRow := func(cells []string) {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	writeRow(header)
	writeRow(lo.Map(header, func(string, int) string { return "---" }))
	for _, row := range rows {
		writeRow(row)
	}
}

func columnDetail(c ColumnSummary) string {
	var parts []string
	switch c.Kind {
	case KindNumeric:
		if !c.Numerical() {
			parts = append(parts, fmt.Sprintf("%d non-numeric", c.NonNull-c.NumericCount))
		}
		if c.OutlierThreshold > 0 {
			o := fmt.Sprintf("outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
			if c.OutliersMaxAbsZ > 0 {
				o += fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ)
			}
			parts = append(parts, o)
		}
	case KindCategorical:
		if len(c.TopValues) > 0 {
			tops := lo.Map(c.TopValues, func(kv CategoryCount, _ int) string {
				return fmt.Sprintf("%s(%d)", cleanCell(kv.Value), kv.Count)
			})
			parts = append(parts, "top: "+strings.Join(tops, ", "))
		}
		if c.Unique > len(c.TopValues) {
			parts = append(parts, fmt.Sprintf("unique=%d", c.Unique))
		}
	case KindText:
		if len(c.ExampleTexts) > 0 {
			ex := lo.Map(c.ExampleTexts, func(s string, _ int) string { return cleanCell(s) })
			parts = append(parts, "e.g., "+strings.Join(ex, " | "))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " - " + strings.Join(parts, "; ")
}

func displayName(c ColumnSummary) string {
	name := cleanName(lo.Ternary(c.Label != "", c.Label, c.Name))
	if c.Unit != "" {
		name += " [" + c.Unit + "]"
	}
	return name
}

func nameList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func cleanName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(unnamed)"
	}
	return s
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "|", "/")

func cleanCell(s string) string {
	if len(s) > maxCellWidth {
		s = s[:maxCellWidth-3] + "..."
	}
	return cellReplacer.Replace(s)
}
