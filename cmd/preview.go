// =============================================================================
// Billing Note Emitter - Preview Command
// =============================================================================
//
// This file defines the 'preview' command, which prints the note values the
// first rows of a dataset would be rendered with.
//
// COMMAND USAGE:
//   emissor preview --input <file> [--rows N] [--mask]
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hube-energy/emissor/internal/converter"
)

var previewFlags struct {
	input     string
	rows      int
	mask      bool
	sheet     string
	delimiter string
}

// previewCmd represents the 'preview' command.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the note values of the first rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	f := previewCmd.Flags()
	f.StringVarP(&previewFlags.input, "input", "i", "", "Dataset file (required)")
	f.IntVarP(&previewFlags.rows, "rows", "n", converter.DefaultPreviewRows, "Number of rows to show")
	f.BoolVar(&previewFlags.mask, "mask", false, "Mask customer names and CPF/CNPJ")
	f.StringVar(&previewFlags.sheet, "sheet", "", "XLSX sheet name")
	f.StringVar(&previewFlags.delimiter, "delimiter", "", "CSV delimiter")
	_ = previewCmd.MarkFlagRequired("input")
}

func runPreview(cmd *cobra.Command) error {
	table, err := converter.LoadFile(previewFlags.input, loadOptions(previewFlags.sheet, previewFlags.delimiter))
	if err != nil {
		return err
	}

	builder := converter.NewBuilder(app.registry, converter.WithMasking(maskEnabled(cmd, previewFlags.mask)))
	rows := converter.Preview(table, builder, previewFlags.rows)

	fmt.Printf("=== Preview: %s (%d of %d rows) ===\n", table.Source, len(rows), len(table.Rows))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(w, "\nLinha %d\n", row.Line)
		if row.Error != "" {
			fmt.Fprintf(w, "  erro\t%s\n", row.Error)
			continue
		}
		for _, key := range converter.TemplateKeys {
			fmt.Fprintf(w, "  %s\t%s\n", key, row.Values[key])
		}
	}
	return w.Flush()
}
