package chart

import (
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Type names a supported chart kind.
type Type string

const (
	Line      Type = "line"
	Bar       Type = "bar"
	Scatter   Type = "scatter"
	Histogram Type = "histogram"
)

// NeedsY reports whether the chart plots a second column.
func (t Type) NeedsY() bool { return t != Histogram }

type builder func(x, y []any) Trace

var builders = map[Type]builder{
	Line: func(x, y []any) Trace {
		return Trace{Type: "scatter", Mode: "lines", X: x, Y: y}
	},
	Scatter: func(x, y []any) Trace {
		return Trace{Type: "scatter", Mode: "markers", X: x, Y: y}
	},
	Bar: func(x, y []any) Trace {
		return Trace{Type: "bar", X: x, Y: y}
	},
	Histogram: func(x, _ []any) Trace {
		return Trace{Type: "histogram", X: x}
	},
}

// Lookup resolves a chart type name. Names are case sensitive.
func Lookup(name string) (Type, bool) {
	t := Type(name)
	_, ok := builders[t]
	return t, ok
}

// Types lists the supported chart types in name order.
func Types() []Type {
	out := make([]Type, 0, len(builders))
	for t := range builders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Figure is a Plotly figure: a list of traces and a layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single Plotly trace.
type Trace struct {
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
	Name string `json:"name,omitempty"`
	X    []any  `json:"x"`
	Y    []any  `json:"y,omitempty"`
}

type Layout struct {
	Title    Text   `json:"title"`
	Autosize bool   `json:"autosize"`
	Height   int    `json:"height"`
	Margin   Margin `json:"margin"`
	XAxis    Axis   `json:"xaxis"`
	YAxis    Axis   `json:"yaxis"`
}

type Text struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Text `json:"title"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Style holds the layout settings shared by every figure.
type Style struct {
	Height int
	Margin int
}

// DefaultStyle returns a 600px tall layout with 50px margins.
func DefaultStyle() Style { return Style{Height: 600, Margin: 50} }

// JSON encodes the figure as a JSON document.
func (f *Figure) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode figure: %w", err)
	}
	return string(b), nil
}
