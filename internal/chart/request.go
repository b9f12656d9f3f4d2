package chart

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/tabviz/internal/table"
)

// DefaultTitle is used when a request carries no title.
const DefaultTitle = "Visualization"

// Request is the body of a chart request.
type Request struct {
	ChartType string              `json:"chartType"`
	XColumn   string              `json:"xColumn"`
	YColumn   string              `json:"yColumn,omitempty"`
	Title     string              `json:"title,omitempty"`
	Data      jsoniter.RawMessage `json:"data"`
}

// Plan is a validated request bound to its data table.
type Plan struct {
	Type  Type
	X     string
	Y     string
	Title string
	Table *table.Table
}

// RequestError is a client fault found while validating a request.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func requestErrorf(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// Empty reports whether the request carries nothing at all.
func (r Request) Empty() bool {
	return r.ChartType == "" && r.XColumn == "" && r.YColumn == "" && r.Title == "" && len(r.Data) == 0
}

// Validate checks required fields, the chart type and the referenced
// columns, and returns the request bound to its table.
func (r Request) Validate() (*Plan, error) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil, requestErrorf("Invalid data format")
	}
	t, err := table.FromRecords(r.Data)
	if err != nil {
		return nil, &RequestError{Message: "Invalid data format", Err: err}
	}
	if r.ChartType == "" {
		return nil, requestErrorf("Missing required field: chartType")
	}
	if r.XColumn == "" {
		return nil, requestErrorf("Missing required field: xColumn")
	}
	typ, ok := Lookup(r.ChartType)
	if !ok {
		return nil, requestErrorf("Invalid chart type: %s", r.ChartType)
	}
	if !t.Has(r.XColumn) {
		return nil, requestErrorf("Column %s not found in data", r.XColumn)
	}
	if typ.NeedsY() {
		if r.YColumn == "" {
			return nil, requestErrorf("Missing required field: yColumn")
		}
		if !t.Has(r.YColumn) {
			return nil, requestErrorf("Column %s not found in data", r.YColumn)
		}
	}
	p := &Plan{Type: typ, X: r.XColumn, Title: r.Title, Table: t}
	if typ.NeedsY() {
		p.Y = r.YColumn
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	return p, nil
}
