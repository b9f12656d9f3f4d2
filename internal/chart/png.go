package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/tabviz/internal/analysis"
)

const (
	pngWidth = 1024
	maxBars  = 200
	maxTicks = 20
)

// ErrNotNumeric is returned when a column that must be plotted on a value
// axis holds no numbers.
var ErrNotNumeric = errors.New("column has no numeric values")

// RenderPNG draws the plan as a static PNG image.
func RenderPNG(w io.Writer, p *Plan, st Style) error {
	x, err := plotColumn(p, p.X)
	if err != nil {
		return &BuildError{Type: p.Type, Err: err}
	}
	var y []any
	if p.Type.NeedsY() {
		if y, err = plotColumn(p, p.Y); err != nil {
			return &BuildError{Type: p.Type, Err: err}
		}
	}
	height := st.Height
	if height <= 0 {
		height = DefaultStyle().Height
	}
	switch p.Type {
	case Line, Scatter:
		err = renderSeries(w, p, x, y, height)
	case Bar:
		err = renderBars(w, p, x, y, height)
	case Histogram:
		err = renderHistogram(w, p, x, height)
	default:
		return requestErrorf("Invalid chart type: %s", p.Type)
	}
	if err != nil {
		return &BuildError{Type: p.Type, Err: err}
	}
	return nil
}

func renderSeries(w io.Writer, p *Plan, x, y []any, height int) error {
	xs, numericX := numbers(x)
	var (
		ticks  []gochart.Tick
		xRange *gochart.ContinuousRange
	)
	if !numericX {
		xs = make([]float64, len(x))
		for i := range x {
			xs[i] = float64(i)
		}
		ticks = indexTicks(x)
		xRange = &gochart.ContinuousRange{Min: -0.5, Max: float64(len(x)) - 0.5}
	}
	var px, py []float64
	for i := range y {
		yv, ok := toNumber(y[i])
		if !ok || math.IsNaN(xs[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, yv)
	}
	if len(px) == 0 {
		return fmt.Errorf("column %q: %w", p.Y, ErrNotNumeric)
	}
	if xRange == nil {
		xRange = paddedRange(px)
	}
	style := gochart.Style{StrokeWidth: 2}
	if p.Type == Scatter {
		style = gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 4}
	}
	c := gochart.Chart{
		Title:  p.Title,
		Width:  pngWidth,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{Name: p.X, Ticks: ticks, Range: xRange},
		YAxis: gochart.YAxis{Name: p.Y, Range: paddedRange(py)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: p.Y, XValues: px, YValues: py, Style: style},
		},
	}
	return c.Render(gochart.PNG, w)
}

func renderBars(w io.Writer, p *Plan, x, y []any, height int) error {
	var bars []gochart.Value
	for i := range y {
		v, ok := toNumber(y[i])
		if !ok {
			continue
		}
		bars = append(bars, gochart.Value{Value: v, Label: cast.ToString(x[i])})
	}
	if len(bars) == 0 {
		return fmt.Errorf("column %q: %w", p.Y, ErrNotNumeric)
	}
	return drawBars(w, p.Title, bars, height)
}

func renderHistogram(w io.Writer, p *Plan, x []any, height int) error {
	vals, numeric := numbers(x)
	if !numeric {
		return drawBars(w, p.Title, categoryCounts(x), height)
	}
	vals = lo.Filter(vals, func(v float64, _ int) bool { return !math.IsNaN(v) })
	return drawBars(w, p.Title, binValues(vals), height)
}

func drawBars(w io.Writer, title string, bars []gochart.Value, height int) error {
	if len(bars) > maxBars {
		bars = bars[:maxBars]
	}
	// The bar chart refuses to draw fewer than two bars.
	if len(bars) == 1 {
		bars = append(bars, gochart.Value{Label: " "})
	}
	values := lo.Map(bars, func(b gochart.Value, _ int) float64 { return b.Value })
	rng := paddedRange(append(values, 0))
	barWidth := lo.Clamp((pngWidth-120)/len(bars)-4, 4, 60)
	c := gochart.BarChart{
		Title:      title,
		Width:      lo.Max([]int{pngWidth, len(bars)*(barWidth+4) + 120}),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: 4,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: gochart.YAxis{Range: rng},
		Bars:  bars,
	}
	return c.Render(gochart.PNG, w)
}

// binValues groups vals into Sturges bins labelled by their lower edge.
func binValues(vals []float64) []gochart.Value {
	if len(vals) == 0 {
		return nil
	}
	minV, maxV := lo.Min(vals), lo.Max(vals)
	k := int(math.Ceil(math.Log2(float64(len(vals))))) + 1
	if maxV == minV {
		return []gochart.Value{{Value: float64(len(vals)), Label: fmt.Sprintf("%.3g", minV)}}
	}
	width := (maxV - minV) / float64(k)
	counts := make([]float64, k)
	for _, v := range vals {
		i := int((v - minV) / width)
		if i >= k {
			i = k - 1
		}
		counts[i]++
	}
	out := make([]gochart.Value, k)
	for i := range counts {
		out[i] = gochart.Value{Value: counts[i], Label: fmt.Sprintf("%.3g", minV+float64(i)*width)}
	}
	return out
}

// categoryCounts counts each distinct value, most frequent first.
func categoryCounts(cells []any) []gochart.Value {
	counts := map[string]int{}
	for _, c := range cells {
		if c == nil {
			continue
		}
		counts[cast.ToString(c)]++
	}
	out := make([]gochart.Value, 0, len(counts))
	for k, v := range counts {
		out = append(out, gochart.Value{Value: float64(v), Label: k})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value == out[j].Value {
			return out[i].Label < out[j].Label
		}
		return out[i].Value > out[j].Value
	})
	return out
}

// numbers converts cells to floats. Missing cells become NaN. The second
// result is false when any present cell is not a number.
func numbers(cells []any) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == nil {
			out[i] = math.NaN()
			continue
		}
		v, ok := toNumber(c)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func toNumber(c any) (float64, bool) {
	switch v := c.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		return analysis.ParseNumber(v)
	case bool:
		return 0, false
	}
	v, err := cast.ToFloat64E(c)
	return v, err == nil
}

// indexTicks labels positions 0..n-1 with the cell values. Explicit ticks
// set the axis range, so blank ticks half a step outside keep it non-empty.
func indexTicks(cells []any) []gochart.Tick {
	step := 1
	if len(cells) > maxTicks {
		step = int(math.Ceil(float64(len(cells)) / maxTicks))
	}
	ticks := []gochart.Tick{{Value: -0.5}}
	for i := 0; i < len(cells); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: cast.ToString(cells[i])})
	}
	return append(ticks, gochart.Tick{Value: float64(len(cells)) - 0.5})
}

// paddedRange spans vals, widening a zero width span so the axis can be drawn.
func paddedRange(vals []float64) *gochart.ContinuousRange {
	minV, maxV := lo.Min(vals), lo.Max(vals)
	if minV == maxV {
		pad := math.Abs(minV) * 0.1
		if pad == 0 {
			pad = 1
		}
		return &gochart.ContinuousRange{Min: minV - pad, Max: maxV + pad}
	}
	return &gochart.ContinuousRange{Min: minV, Max: maxV}
}
