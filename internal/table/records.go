package table

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// ErrInvalidRecords indicates JSON that cannot be shaped into a table.
var ErrInvalidRecords = errors.New("invalid records")

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool { return hasSuffix(filename, ".json") }

func (jsonLoader) extensions() []string { return []string{".json"} }

func (jsonLoader) Load(r io.Reader, _ Options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return FromRecords(data)
}

// FromRecords builds a table from JSON. Two shapes are accepted: an array of
// row objects, and an object mapping column names to equally long arrays.
// Columns keep the order in which their keys first appear.
func FromRecords(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRecords)
	}
	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		return fromRowObjects(root)
	case root.IsObject():
		return fromColumnArrays(root)
	default:
		return nil, fmt.Errorf("%w: expected an array of records", ErrInvalidRecords)
	}
}

func fromRowObjects(root gjson.Result) (*Table, error) {
	t := &Table{}
	index := map[string]int{}
	var sparse []map[int]any
	var err error
	root.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			err = fmt.Errorf("%w: record %d is not an object", ErrInvalidRecords, len(sparse))
			return false
		}
		row := map[int]any{}
		rec.ForEach(func(k, v gjson.Result) bool {
			name := k.String()
			idx, ok := index[name]
			if !ok {
				idx = len(t.Columns)
				index[name] = idx
				t.Columns = append(t.Columns, name)
			}
			row[idx] = cellValue(v)
			return true
		})
		sparse = append(sparse, row)
		return true
	})
	if err != nil {
		return nil, err
	}
	t.Rows = make([][]any, len(sparse))
	for i, row := range sparse {
		dense := make([]any, len(t.Columns))
		for j, v := range row {
			dense[j] = v
		}
		t.Rows[i] = dense
	}
	return t, nil
}

func fromColumnArrays(root gjson.Result) (*Table, error) {
	t := &Table{}
	var cols [][]gjson.Result
	var err error
	root.ForEach(func(k, v gjson.Result) bool {
		if !v.IsArray() {
			err = fmt.Errorf("%w: column %q is not an array", ErrInvalidRecords, k.String())
			return false
		}
		vals := v.Array()
		if len(cols) > 0 && len(vals) != len(cols[0]) {
			err = fmt.Errorf("%w: all columns must have the same length", ErrInvalidRecords)
			return false
		}
		t.Columns = append(t.Columns, k.String())
		cols = append(cols, vals)
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return t, nil
	}
	t.Rows = make([][]any, len(cols[0]))
	for i := range t.Rows {
		row := make([]any, len(cols))
		for j := range cols {
			row[j] = cellValue(cols[j][i])
		}
		t.Rows[i] = row
	}
	return t, nil
}

func cellValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Value()
	}
}
