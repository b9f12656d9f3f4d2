package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Loader turns raw upload bytes of one file format into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader, opt Options) (*Table, error)
}

// Options tunes format specific loading.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the header line.
	Delimiter rune
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex is the 1-based XLSX sheet position, used when SheetName is empty.
	SheetIndex int
}

var (
	// ErrUnsupported indicates no loader accepts the file name.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrEmpty indicates the file has no header row.
	ErrEmpty = errors.New("empty file")
)

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Extensions lists the file suffixes the registered loaders accept.
func Extensions() []string {
	var out []string
	for _, l := range registry {
		if el, ok := l.(interface{ extensions() []string }); ok {
			out = append(out, el.extensions()...)
		}
	}
	return lo.Uniq(out)
}

// Load picks a loader by file name and parses r with it.
func Load(filename string, r io.Reader, opt Options) (*Table, error) {
	for _, l := range registry {
		if !l.CanLoad(filename) {
			continue
		}
		t, err := l.Load(r, opt)
		if err != nil {
			return nil, err
		}
		t.Name = filepath.Base(filename)
		return t, nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = "(none)"
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

// LoadFile opens path and loads it by its extension.
func LoadFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return Load(path, f, opt)
}

func hasSuffix(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	return lo.SomeBy(exts, func(ext string) bool { return strings.HasSuffix(name, ext) })
}

func init() {
	Register(delimitedLoader{exts: []string{".csv", ".txt"}})
	Register(delimitedLoader{exts: []string{".tsv"}, comma: '\t'})
	Register(xlsxLoader{})
	Register(jsonLoader{})
}
