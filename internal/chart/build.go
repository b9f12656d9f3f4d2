package chart

import (
	"errors"
	"fmt"
)

var (
	ErrNoRows       = errors.New("no rows")
	ErrEmptyColumn  = errors.New("column has no values")
	ErrNestedValues = errors.New("column holds nested values")
)

// BuildError reports that a validated plan could not be turned into a figure.
type BuildError struct {
	Type Type
	Err  error
}

func (e *BuildError) Error() string { return fmt.Sprintf("%s: %v", e.Message(), e.Err) }

func (e *BuildError) Unwrap() error { return e.Err }

// Message is the client facing description of the failure.
func (e *BuildError) Message() string { return fmt.Sprintf("Error creating %s plot", e.Type) }

// Build dispatches a plan to the builder of its chart type.
func Build(p *Plan, st Style) (*Figure, error) {
	build, ok := builders[p.Type]
	if !ok {
		return nil, requestErrorf("Invalid chart type: %s", p.Type)
	}
	x, err := plotColumn(p, p.X)
	if err != nil {
		return nil, &BuildError{Type: p.Type, Err: err}
	}
	var y []any
	yTitle := "count"
	if p.Type.NeedsY() {
		if y, err = plotColumn(p, p.Y); err != nil {
			return nil, &BuildError{Type: p.Type, Err: err}
		}
		yTitle = p.Y
	}
	tr := build(x, y)
	return &Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Title:    Text{Text: p.Title},
			Autosize: true,
			Height:   st.Height,
			Margin:   Margin{L: st.Margin, R: st.Margin, T: st.Margin, B: st.Margin},
			XAxis:    Axis{Title: Text{Text: p.X}},
			YAxis:    Axis{Title: Text{Text: yTitle}},
		},
	}, nil
}

// plotColumn returns the cells of a referenced column, rejecting columns
// that cannot be drawn.
func plotColumn(p *Plan, name string) ([]any, error) {
	if p.Table == nil || p.Table.Len() == 0 {
		return nil, ErrNoRows
	}
	cells, ok := p.Table.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrEmptyColumn)
	}
	present := 0
	for _, c := range cells {
		switch c.(type) {
		case nil:
			continue
		case map[string]any, []any:
			return nil, fmt.Errorf("column %q: %w", name, ErrNestedValues)
		}
		present++
	}
	if present == 0 {
		return nil, fmt.Errorf("column %q: %w", name, ErrEmptyColumn)
	}
	return cells, nil
}
