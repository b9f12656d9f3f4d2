package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/table"
	"github.com/KaramelBytes/tabviz/internal/utils"
)

var (
	chType      string
	chX         string
	chY         string
	chTitle     string
	chPNG       bool
	chOutput    string
	chSheetName string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Build a chart from a file as Plotly JSON or PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := table.LoadFile(args[0], table.Options{SheetName: chSheetName})
		if err != nil {
			return err
		}
		p, err := planFor(t)
		if err != nil {
			return err
		}
		st := chart.DefaultStyle()
		if h := settings().ChartHeight; h > 0 {
			st.Height = h
		}

		var out []byte
		if chPNG {
			if chOutput == "" {
				return fmt.Errorf("--png requires --output")
			}
			var buf bytes.Buffer
			if err := chart.RenderPNG(&buf, p, st); err != nil {
				return err
			}
			out = buf.Bytes()
		} else {
			fig, err := chart.Build(p, st)
			if err != nil {
				return err
			}
			if out, err = utils.PrettyJSON(fig); err != nil {
				return err
			}
		}
		if chOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
		if err := utils.SafeWriteFile(chOutput, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s chart to %s\n", p.Type, chOutput)
		return nil
	},
}

// planFor validates the chart flags against the columns of t.
func planFor(t *table.Table) (*chart.Plan, error) {
	typ, ok := chart.Lookup(chType)
	if !ok {
		return nil, fmt.Errorf("invalid chart type: %s (use one of %v)", chType, chart.Types())
	}
	if !t.Has(chX) {
		return nil, fmt.Errorf("column %s not found in %s", chX, t.Name)
	}
	p := &chart.Plan{Type: typ, X: chX, Title: chTitle, Table: t}
	if typ.NeedsY() {
		if !t.Has(chY) {
			return nil, fmt.Errorf("column %s not found in %s", chY, t.Name)
		}
		p.Y = chY
	}
	if p.Title == "" {
		p.Title = chart.DefaultTitle
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chType, "type", "t", "line", "chart type: line | bar | scatter | histogram")
	chartCmd.Flags().StringVar(&chX, "x", "", "x column")
	chartCmd.Flags().StringVar(&chY, "y", "", "y column (not used by histogram)")
	chartCmd.Flags().StringVar(&chTitle, "title", "", "chart title")
	chartCmd.Flags().BoolVar(&chPNG, "png", false, "render a PNG image instead of Plotly JSON")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "output path (stdout if omitted)")
	chartCmd.Flags().StringVar(&chSheetName, "sheet-name", "", "XLSX: sheet name to chart")
	_ = chartCmd.MarkFlagRequired("x")
}
