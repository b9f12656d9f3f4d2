package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/tabviz/internal/analysis"
	"github.com/KaramelBytes/tabviz/internal/table"
	"github.com/KaramelBytes/tabviz/internal/utils"
)

// analyzeFlags are shared by analyze and analyze-batch.
type analyzeFlags struct {
	delimiter     string
	decimal       string
	thousands     string
	sampleRows    int
	maxRows       int
	corr          bool
	outliers      bool
	outlierThr    float64
	unitNormalize bool
	sheetName     string
	sheetIndex    int
	format        string
}

func (a *analyzeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&a.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	fs.StringVar(&a.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&a.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&a.sampleRows, "sample-rows", 5, "number of sample rows to include")
	fs.IntVar(&a.maxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	fs.BoolVar(&a.corr, "correlations", false, "compute Pearson correlations among numeric columns")
	fs.BoolVar(&a.outliers, "outliers", true, "compute robust outlier counts (MAD)")
	fs.Float64Var(&a.outlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	fs.BoolVar(&a.unitNormalize, "unit-normalize", false, "convert values of recognised units (e.g. °F, g/L) to canonical units")
	fs.StringVar(&a.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&a.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.StringVar(&a.format, "format", "markdown", "output format: markdown | json")
}

func (a *analyzeFlags) options() (table.Options, analysis.Options, error) {
	lopt := table.Options{SheetName: a.sheetName, SheetIndex: a.sheetIndex}
	switch a.delimiter {
	case "":
	case ",":
		lopt.Delimiter = ','
	case "\t", "tab":
		lopt.Delimiter = '\t'
	case ";":
		lopt.Delimiter = ';'
	case "|", "pipe":
		lopt.Delimiter = '|'
	default:
		return lopt, analysis.Options{}, fmt.Errorf("unsupported --delimiter: %s", a.delimiter)
	}

	opt := analysis.DefaultOptions()
	opt.SampleRows = a.sampleRows
	opt.MaxRows = a.maxRows
	switch strings.ToLower(strings.TrimSpace(a.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return lopt, opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", a.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(a.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return lopt, opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", a.thousands)
	}
	opt.Correlations = a.corr
	opt.Outliers = a.outliers
	if a.outlierThr > 0 {
		opt.OutlierThreshold = a.outlierThr
	}
	if a.unitNormalize {
		opt.UnitNormalize = true
		opt.UnitTargets = analysis.DefaultUnitTargets()
	}
	switch a.format {
	case "markdown", "md", "json":
	default:
		return lopt, opt, fmt.Errorf("unsupported --format: %s (use markdown|json)", a.format)
	}
	return lopt, opt, nil
}

// analyzeFile loads and analyzes one file and renders it in the chosen format.
func (a *analyzeFlags) analyzeFile(path string) ([]byte, error) {
	lopt, opt, err := a.options()
	if err != nil {
		return nil, err
	}
	t, err := table.LoadFile(path, lopt)
	if err != nil {
		return nil, err
	}
	rep := analysis.Analyze(t, opt)
	if a.format == "json" {
		return utils.PrettyJSON(rep)
	}
	return []byte(rep.Markdown()), nil
}

var (
	anaFlags      analyzeFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX/JSON file and produce a concise summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := anaFlags.analyzeFile(args[0])
		if err != nil {
			return err
		}
		if anaOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
		if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
}

// ensureDir creates dir when it does not exist yet.
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
