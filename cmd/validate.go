// =============================================================================
// Billing Note Emitter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks a dataset without
// rendering anything: required columns, record count and the consolidated
// total.
//
// COMMAND USAGE:
//   emissor validate --input <file> [--sheet <name>] [--delimiter <c>]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hube-energy/emissor/internal/converter"
)

var validateFlags struct {
	input     string
	sheet     string
	delimiter string
}

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a dataset's columns and totals",
	Long: `Validate parses a dataset and reports its record count, its columns,
the consolidated total, and any required field without a matching column.

The command exits with an error when a required field is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.input, "input", "i", "", "Dataset file (required)")
	validateCmd.Flags().StringVar(&validateFlags.sheet, "sheet", "", "XLSX sheet name")
	validateCmd.Flags().StringVar(&validateFlags.delimiter, "delimiter", "", "CSV delimiter")
	_ = validateCmd.MarkFlagRequired("input")
}

func runValidate() error {
	table, err := converter.LoadFile(validateFlags.input, loadOptions(validateFlags.sheet, validateFlags.delimiter))
	if err != nil {
		return err
	}

	summary := converter.Summarize(table, app.registry)

	fmt.Println("=== Dataset Validation ===")
	fmt.Printf("File:    %s\n", summary.Source)
	fmt.Printf("Records: %d\n", summary.Records)
	fmt.Printf("Columns: %d\n", len(summary.Columns))
	if summary.TotalColumn != "" {
		fmt.Printf("Total:   %s (%s)\n", summary.FormattedTotal, summary.TotalColumn)
	} else {
		fmt.Println("Total:   no total column")
	}

	if summary.Valid() {
		fmt.Println("\n✓ All required columns present")
		return nil
	}

	fmt.Println("\n✗ Missing required columns:")
	for _, m := range summary.Missing {
		fmt.Printf("  - %s\n", m)
	}
	return fmt.Errorf("%d required column(s) missing", len(summary.Missing))
}
