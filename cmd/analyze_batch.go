package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabviz/internal/utils"
)

var (
	abFlags  analyzeFlags
	abOutDir string
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple files or globs with progress and optional output directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if _, _, err := abFlags.options(); err != nil {
			return err
		}
		if err := ensureDir(abOutDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		ext := ".summary.md"
		if abFlags.format == "json" {
			ext = ".summary.json"
		}

		w := cmd.OutOrStdout()
		taken := map[string]bool{}
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			out, err := abFlags.analyzeFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(w, string(out))
				}
				continue
			}
			outFile := utils.UniquePath(abOutDir, utils.StripExt(path), ext, taken)
			if err := utils.SafeWriteFile(outFile, out); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(w, "✓ Wrote %s\n", filepath.Base(outFile))
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd.Flags())
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for <name>.summary.md|json files (stdout if omitted)")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
}
