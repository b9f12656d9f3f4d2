package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"

	"github.com/KaramelBytes/tabviz/internal/table"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many leading rows to keep in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "°F":"°C"}
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SampleRows: 5,
		Outliers:   true,
	}
}

// Report describes a tabular dataset column by column.
type Report struct {
	Name      string          `json:"name"`
	Rows      int             `json:"rows"`
	Processed int             `json:"processed"`
	Cols      []ColumnSummary `json:"columns"`
	Samples   [][]any         `json:"samples,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Corr      *CorrMatrix     `json:"correlations,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	// Name is the column name exactly as in the table.
	Name string `json:"name"`
	// Label is Name without a trailing unit annotation.
	Label   string `json:"label,omitempty"`
	Kind    Kind   `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// NumericCount is how many non-null cells parsed as numbers.
	NumericCount int `json:"numeric_count,omitempty"`
	// Numeric stats
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
	Q1     float64 `json:"q1,omitempty"`
	Median float64 `json:"median,omitempty"`
	Q3     float64 `json:"q3,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// Numerical reports whether every non-null cell of the column is a number.
// A numeric column with stray text is still profiled as numeric but does
// not count as numerical in the upload view.
func (c ColumnSummary) Numerical() bool {
	return c.Kind == KindNumeric && c.NumericCount == c.NonNull
}

// Column returns the summary for the named column.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

type colAcc struct {
	name     string
	label    string
	unit     string
	origUnit string
	nonNil   int
	miss     int

	// numeric stats via Welford
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	vals   []float64
	numCnt int
	dtCnt  int
	txtCnt int
	cats   map[string]int
	exText []string
}

// pairAcc accumulates exact pairwise sums for one pair of numeric columns.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

func (pa *pairAcc) r() float64 {
	if pa == nil || pa.n < 2 {
		return 0
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 {
		return 0
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// Analyze computes a Report over the rows of t.
func Analyze(t *table.Table, opt Options) *Report {
	rep := &Report{Name: t.Name}
	ncol := len(t.Columns)
	if ncol == 0 {
		return rep
	}
	cols := make([]*colAcc, ncol)
	for i, name := range t.Columns {
		label, unit := splitUnits(name)
		cols[i] = &colAcc{name: name, label: label, unit: unit, origUnit: unit, min: math.Inf(1), max: math.Inf(-1), cats: make(map[string]int)}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 5
	}
	pair := make(map[int]*pairAcc) // key = i*ncol + j with i>j

	for _, row := range t.Rows {
		rep.Rows++
		if rep.Processed >= maxRows {
			continue
		}
		rep.Processed++
		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, row)
		}

		rowNums := make(map[int]float64)
		for j := 0; j < ncol && j < len(row); j++ {
			c := cols[j]
			x, isNum, text, ok := c.classify(row[j], opt)
			if !ok {
				c.miss++
				continue
			}
			c.nonNil++
			if isNum {
				c.addNumber(x)
				if opt.Correlations {
					rowNums[j] = x
				}
				continue
			}
			c.addText(text)
		}
		for j := len(row); j < ncol; j++ {
			cols[j].miss++
		}
		if opt.Correlations && len(rowNums) >= 2 {
			idxs := make([]int, 0, len(rowNums))
			for j := range rowNums {
				idxs = append(idxs, j)
			}
			sort.Ints(idxs)
			for a := 1; a < len(idxs); a++ {
				for b := 0; b < a; b++ {
					key := idxs[a]*ncol + idxs[b]
					pa := pair[key]
					if pa == nil {
						pa = &pairAcc{}
						pair[key] = pa
					}
					pa.add(rowNums[idxs[a]], rowNums[idxs[b]])
				}
			}
		}
	}

	rep.Cols = make([]ColumnSummary, 0, ncol)
	var numCols []int
	for idx, c := range cols {
		s := c.summary(opt)
		if s.Kind == KindNumeric {
			numCols = append(numCols, idx)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}

	if opt.Correlations && len(numCols) >= 2 {
		names := make([]string, len(numCols))
		for i, idx := range numCols {
			names[i] = cols[idx].name
		}
		n := len(numCols)
		mat := make([][]float64, n)
		for a := range mat {
			mat[a] = make([]float64, n)
			for b := 0; b < n; b++ {
				if a == b {
					mat[a][b] = 1
					continue
				}
				ia, ib := numCols[a], numCols[b]
				mat[a][b] = pair[max(ia, ib)*ncol+min(ia, ib)].r()
			}
		}
		rep.Corr = &CorrMatrix{Columns: names, Values: mat}
	}
	return rep
}

// classify turns a cell into either a number or trimmed text.
// ok is false for missing cells.
func (c *colAcc) classify(cell any, opt Options) (x float64, isNum bool, text string, ok bool) {
	switch v := cell.(type) {
	case nil:
		return 0, false, "", false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false, "", false
		}
		return v, true, "", true
	case map[string]any, []any:
		return 0, false, fmt.Sprintf("%v", v), true
	}
	s := strings.TrimSpace(cast.ToString(cell))
	if s == "" {
		return 0, false, "", false
	}
	if strings.Contains(s, "%") && c.unit == "" {
		c.unit = "%"
		if c.origUnit == "" {
			c.origUnit = "%"
		}
	}
	if x, ok := parseNumeric(s, opt); ok {
		if opt.UnitNormalize && c.origUnit != "" {
			if nx, nu, okc := normalizeUnit(x, c.origUnit, opt); okc {
				x = nx
				c.unit = nu
			}
		}
		return x, true, "", true
	}
	return 0, false, s, true
}

func (c *colAcc) addNumber(x float64) {
	c.numCnt++
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.vals = append(c.vals, x)
}

func (c *colAcc) addText(v string) {
	if looksLikeTime(v) {
		c.dtCnt++
		return
	}
	c.txtCnt++
	if len(c.cats) <= 10000 { // guard memory
		if len(v) <= 64 {
			c.cats[v]++
		} // treat short tokens as categories
	}
	if len(c.exText) < 3 {
		c.exText = append(c.exText, v)
	}
}

func (c *colAcc) summary(opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.name, Unit: c.unit, NonNull: c.nonNil, Missing: c.miss, NumericCount: c.numCnt}
	if c.label != c.name {
		s.Label = c.label
	}
	s.Kind = KindUnknown
	switch {
	case c.numCnt >= c.dtCnt && c.numCnt >= c.txtCnt && c.numCnt > 0:
		s.Kind = KindNumeric
		s.Min = c.min
		s.Max = c.max
		s.Mean = c.mean
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		sorted := append([]float64(nil), c.vals...)
		sort.Float64s(sorted)
		s.Q1 = quantile(sorted, 0.25)
		s.Median = quantile(sorted, 0.5)
		s.Q3 = quantile(sorted, 0.75)
		if opt.Outliers && len(c.vals) >= 8 {
			s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = robustOutliers(c.vals, opt.OutlierThreshold)
		}
	case c.dtCnt >= c.txtCnt && c.dtCnt > 0:
		s.Kind = KindDatetime
	case len(c.cats) > 0:
		s.Kind = KindCategorical
		tops := make([]CategoryCount, 0, len(c.cats))
		for k, v := range c.cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = KindText
		s.ExampleTexts = c.exText
	}
	return s
}

// looksLikeTime reports whether v parses as a date or timestamp.
// Dates need digits and a separator, which keeps dateparse off plain words
// and codes such as "A1" or "item2".
func looksLikeTime(v string) bool {
	if len(v) > 40 || !strings.ContainsAny(v, "0123456789") || !strings.ContainsAny(v, "-/:., ") {
		return false
	}
	_, err := dateparse.ParseAny(v)
	return err == nil
}
