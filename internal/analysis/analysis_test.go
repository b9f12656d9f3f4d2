package analysis

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabviz/internal/table"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	processedConcentration = []float64{
		mgPerL(0.5), mgPerL(0.6), mgPerL(0.55), mgPerL(0.7), mgPerL(0.65), mgPerL(0.68), mgPerL(0.52), mgPerL(0.75), mgPerL(3.0),
	}
	processedTemp = []float64{
		toC(70), toC(71), toC(69), toC(75), toC(74), toC(73), toC(68), toC(76), toC(95),
	}
	processedScore  = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	processedLocale = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000}
)

func loadMetrics(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.Load("metrics.csv", strings.NewReader(strings.Join(csvRows, "\n")), table.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	return tb
}

func TestAnalyzeAndMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.MaxRows = 9
	opt.Correlations = true
	opt.Outliers = true
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	opt.UnitNormalize = true
	opt.UnitTargets = DefaultUnitTargets()

	rep := Analyze(loadMetrics(t), opt)
	assertReport(t, rep, "metrics.csv")

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Rows: ~10 (processed 9)",
		"Concentration [mg/L]: numeric",
		"outliers: 1 above |z|>3.5",
		"Numerical: Concentration (g/L), Temp (°F), Score, LocaleNumber",
		"Categorical: Group, Category, Note",
		"[DESCRIBE]",
		"| stat | Concentration (g/L) | Temp (°F) | Score | LocaleNumber |",
		"| count | 9 | 9 | 9 | 9 |",
		"[CORRELATIONS]",
		"Score ~ LocaleNumber",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
		"processed only 9/10 rows due to MaxRows",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q: %s", want, md)
		}
	}
}

func TestAnalyzeKinds(t *testing.T) {
	content := "date,plot,alpha_acids,moisture,notes,empty\n" +
		"2024-08-10,A1,12.5%,74,,\n" +
		"2024-08-12,A1,11.8%,71,a rather long free text remark that exceeds the sixty four character category cutoff,\n" +
		"2024-08-15,B3,10.2%,68,,\n"
	tb, err := table.Load("hop_harvest.csv", strings.NewReader(content), table.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rep := Analyze(tb, DefaultOptions())

	kinds := map[string]Kind{}
	for _, c := range rep.Cols {
		kinds[c.Name] = c.Kind
	}
	want := map[string]Kind{
		"date":        KindDatetime,
		"plot":        KindCategorical,
		"alpha_acids": KindNumeric,
		"moisture":    KindNumeric,
		"notes":       KindText,
		"empty":       KindUnknown,
	}
	for name, k := range want {
		if kinds[name] != k {
			t.Fatalf("kind of %s = %q, want %q", name, kinds[name], k)
		}
	}
	alpha, _ := rep.Column("alpha_acids")
	if alpha.Unit != "%" {
		t.Fatalf("alpha unit = %q", alpha.Unit)
	}
	if !strings.Contains(rep.Markdown(), "alpha_acids [%]: numeric") {
		t.Fatalf("markdown missing percent unit: %s", rep.Markdown())
	}

	num, cat := rep.ColumnTypes()
	if !equalStrings(num, []string{"alpha_acids", "moisture"}) {
		t.Fatalf("numerical = %#v", num)
	}
	if !equalStrings(cat, []string{"date", "plot", "notes"}) {
		t.Fatalf("categorical = %#v", cat)
	}
}

func TestSummaryDescribe(t *testing.T) {
	tb := &table.Table{
		Columns: []string{"x", "label", "single"},
		Rows: [][]any{
			{1.0, "a", "7"},
			{"2", "b", nil},
			{3.0, "a", nil},
			{"4", nil, nil},
		},
	}
	rep := Analyze(tb, DefaultOptions())
	sum := rep.Summary()
	if len(sum) != 2 {
		t.Fatalf("summary keys = %v", sum)
	}
	d := sum["x"]
	if d.Count != 4 || d.Min != 1 || d.Max != 4 || d.Mean != 2.5 {
		t.Fatalf("describe = %#v", d)
	}
	if !almostEqual(d.Q1, 1.75, 1e-9) || !almostEqual(d.Median, 2.5, 1e-9) || !almostEqual(d.Q3, 3.25, 1e-9) {
		t.Fatalf("quartiles = %v %v %v", d.Q1, d.Median, d.Q3)
	}
	if d.Std == nil || !almostEqual(*d.Std, sampleStd([]float64{1, 2, 3, 4}), 1e-9) {
		t.Fatalf("std = %v", d.Std)
	}
	if s := sum["single"]; s.Std != nil || s.Count != 1 {
		t.Fatalf("single-value describe = %#v", s)
	}
}

func TestSummaryMixedColumn(t *testing.T) {
	tb := &table.Table{
		Columns: []string{"v", "w"},
		Rows: [][]any{
			{"1", 1.0},
			{"2", 2.0},
			{"3", 3.0},
			{"abc", nil},
		},
	}
	rep := Analyze(tb, DefaultOptions())
	v, _ := rep.Column("v")
	if v.Kind != KindNumeric || v.NumericCount != 3 || v.NonNull != 4 {
		t.Fatalf("mixed column = %#v", v)
	}
	if d := v.Describe(); d.Count != 3 || d.Mean != 2 || d.Min != 1 || d.Max != 3 {
		t.Fatalf("mixed describe = %#v", d)
	}

	num, cat := rep.ColumnTypes()
	if !equalStrings(num, []string{"w"}) || !equalStrings(cat, []string{"v"}) {
		t.Fatalf("numerical = %#v categorical = %#v", num, cat)
	}
	sum := rep.Summary()
	if _, ok := sum["v"]; ok {
		t.Fatalf("mixed column should not be summarised: %#v", sum)
	}
	if sum["w"].Count != 3 {
		t.Fatalf("w describe = %#v", sum["w"])
	}
	recs := rep.Preview(tb, 4)
	if recs[0]["v"] != "1" || recs[3]["v"] != "abc" {
		t.Fatalf("mixed preview = %#v", recs)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"- v: numeric (non-null 4, missing 0.0%) - 1 non-numeric\n",
		"Numerical: w\n",
		"Categorical: v\n",
		"| count | 3 | 3 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q: %s", want, md)
		}
	}
}

func TestPreview(t *testing.T) {
	tb := &table.Table{
		Columns: []string{"x", "label"},
		Rows: [][]any{
			{"1,5", "a"},
			{nil, "b"},
			{"3", nil},
		},
	}
	rep := Analyze(tb, DefaultOptions())
	recs := rep.Preview(tb, 2)
	if len(recs) != 2 {
		t.Fatalf("preview rows = %d", len(recs))
	}
	if recs[0]["x"] != 1.5 || recs[0]["label"] != "a" {
		t.Fatalf("first record = %#v", recs[0])
	}
	if v, ok := recs[1]["x"]; !ok || v != nil {
		t.Fatalf("missing cell should be nil, got %#v", recs[1])
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"12.5%", 12.5, true},
		{"1e3", 1000, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || (ok && !almostEqual(got, tc.want, 1e-9)) {
			t.Fatalf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func assertReport(t *testing.T, rep *Report, expectName string) {
	t.Helper()
	if rep.Name != expectName {
		t.Fatalf("report name = %q, want %q", rep.Name, expectName)
	}
	if rep.Rows != 10 {
		t.Fatalf("rows = %d, want 10", rep.Rows)
	}
	if rep.Processed != 9 {
		t.Fatalf("processed = %d, want 9", rep.Processed)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0] != "processed only 9/10 rows due to MaxRows" {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(rep.Samples))
	}
	if rep.Samples[0][1] != "0,5" || rep.Samples[0][6] != "first" {
		t.Fatalf("first sample = %#v", rep.Samples[0])
	}

	conc := columnByName(t, rep, "Concentration (g/L)")
	if conc.Unit != "mg/L" || conc.Label != "Concentration" {
		t.Fatalf("concentration unit = %q label = %q", conc.Unit, conc.Label)
	}
	checkStats(t, conc, processedConcentration)
	count, maxZ := robustOutlierStats(processedScore, 3.5)

	score := columnByName(t, rep, "Score")
	if score.Unit != "" {
		t.Fatalf("score unit = %q", score.Unit)
	}
	checkStats(t, score, processedScore)
	if score.OutliersCount != count {
		t.Fatalf("score outliers = %d, want %d", score.OutliersCount, count)
	}
	if !almostEqual(score.OutliersMaxAbsZ, maxZ, 1e-6) {
		t.Fatalf("score max |z| = %f, want %f", score.OutliersMaxAbsZ, maxZ)
	}
	if !almostEqual(score.OutlierThreshold, 3.5, 1e-9) {
		t.Fatalf("score threshold = %f", score.OutlierThreshold)
	}

	temp := columnByName(t, rep, "Temp (°F)")
	if temp.Unit != "°C" {
		t.Fatalf("temp unit = %q", temp.Unit)
	}
	checkStats(t, temp, processedTemp)

	locale := columnByName(t, rep, "LocaleNumber")
	checkStats(t, locale, processedLocale)

	cat := columnByName(t, rep, "Category")
	if cat.Kind != KindCategorical {
		t.Fatalf("category kind = %q", cat.Kind)
	}
	if len(cat.TopValues) == 0 || cat.TopValues[0].Value != "alpha" || cat.TopValues[0].Count != 5 {
		t.Fatalf("category top = %#v", cat.TopValues)
	}

	if rep.Corr == nil {
		t.Fatalf("corr matrix nil")
	}
	if !equalStrings(rep.Corr.Columns, []string{"Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber"}) {
		t.Fatalf("corr columns = %#v", rep.Corr.Columns)
	}
	expCorr := correlation(processedScore, processedLocale)
	if !almostEqual(rep.Corr.Values[2][3], expCorr, 1e-6) {
		t.Fatalf("global corr score-locale = %f, want %f", rep.Corr.Values[2][3], expCorr)
	}
	if rep.Corr.Values[3][3] != 1 {
		t.Fatalf("diagonal = %f", rep.Corr.Values[3][3])
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	c, ok := rep.Column(name)
	if !ok {
		t.Fatalf("column %q not found", name)
	}
	return c
}

func checkStats(t *testing.T, col ColumnSummary, vals []float64) {
	t.Helper()
	if col.NonNull != len(vals) {
		t.Fatalf("non-null = %d, want %d", col.NonNull, len(vals))
	}
	if !almostEqual(col.Min, minFloat(vals), 1e-6) {
		t.Fatalf("min = %f, want %f", col.Min, minFloat(vals))
	}
	if !almostEqual(col.Max, maxFloat(vals), 1e-6) {
		t.Fatalf("max = %f, want %f", col.Max, maxFloat(vals))
	}
	if !almostEqual(col.Mean, mean(vals), 1e-6) {
		t.Fatalf("mean = %f, want %f", col.Mean, mean(vals))
	}
	if !almostEqual(col.Std, sampleStd(vals), 1e-6) {
		t.Fatalf("std = %f, want %f", col.Std, sampleStd(vals))
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if !almostEqual(col.Median, quantileValue(sorted, 0.5), 1e-6) {
		t.Fatalf("median = %f, want %f", col.Median, quantileValue(sorted, 0.5))
	}
}

func robustOutlierStats(vals []float64, threshold float64) (count int, maxAbs float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	med := quantileValue(cp, 0.5)
	devs := make([]float64, len(cp))
	for i, v := range cp {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	mad := quantileValue(devs, 0.5)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range cp {
		az := math.Abs(0.6745 * (v - med) / mad)
		if az > threshold {
			count++
			if az > maxAbs {
				maxAbs = az
			}
		}
	}
	return
}

func quantileValue(sortedVals []float64, q float64) float64 {
	if len(sortedVals) == 0 {
		return 0
	}
	pos := q * float64(len(sortedVals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sortedVals[lo]
	}
	w := pos - float64(lo)
	return sortedVals[lo]*(1-w) + sortedVals[hi]*w
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		diff := v - m
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func minFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m
}

func correlation(a, b []float64) float64 {
	ma := mean(a)
	mb := mean(b)
	var num, da2, db2 float64
	for i := range a {
		da := a[i] - ma
		db := b[i] - mb
		num += da * db
		da2 += da * da
		db2 += db * db
	}
	if da2 == 0 || db2 == 0 {
		return 0
	}
	return num / math.Sqrt(da2*db2)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mgPerL(v float64) float64 { return v * 1000 }
func toC(f float64) float64    { return (f - 32) * 5.0 / 9.0 }
