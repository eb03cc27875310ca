// =============================================================================
// Billing Note Emitter - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the CLI. It
// runs the note pipeline over one dataset, or over every dataset in a
// directory.
//
// COMMAND USAGE:
//   emissor generate --input <file|dir> [flags]
//
// FLAGS:
//   --input     : Dataset file, or a directory of datasets (required)
//   --template  : Note template name (default: configured, then embedded)
//   --output    : Output directory (default: output_dir from config)
//   --mask      : Mask customer names and CPF/CNPJ
//   --dry-run   : Build every note's data without rendering PDFs
//   --sheet     : XLSX sheet name (default: first sheet)
//   --delimiter : CSV delimiter (default: sniffed)
//
// PROCESSING PIPELINE:
//   1. Discover the datasets
//   2. For each dataset, sequentially:
//      a. Parse it
//      b. Validate columns; missing columns skip the dataset
//      c. Render one PDF per row
//      d. Write the ZIP archive and a summary log
//   3. Print a summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/converter"
	"github.com/hube-energy/emissor/internal/render"
	"github.com/hube-energy/emissor/internal/types"
	"github.com/hube-energy/emissor/internal/validation"
	"github.com/hube-energy/emissor/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var generateFlags struct {
	input     string
	template  string
	output    string
	mask      bool
	dryRun    bool
	sheet     string
	delimiter string
}

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the billing notes of a dataset",
	Long: `The generate command renders one PDF billing note per row of a CSV or
XLSX dataset and writes them to a ZIP archive in the output directory,
together with relatorio_processamento.csv describing every row.

A row that fails to render is recorded in the report and the batch moves
on. A dataset missing required columns is rejected before any note is
rendered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.input, "input", "i", "", "Dataset file or directory (required)")
	f.StringVarP(&generateFlags.template, "template", "t", "", "Note template name")
	f.StringVarP(&generateFlags.output, "output", "o", "", "Output directory")
	f.BoolVar(&generateFlags.mask, "mask", false, "Mask customer names and CPF/CNPJ")
	f.BoolVar(&generateFlags.dryRun, "dry-run", false, "Build note data without rendering PDFs")
	f.StringVar(&generateFlags.sheet, "sheet", "", "XLSX sheet name")
	f.StringVar(&generateFlags.delimiter, "delimiter", "", "CSV delimiter")
	_ = generateCmd.MarkFlagRequired("input")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// datasetResult is the outcome of one dataset in a generate run.
type datasetResult struct {
	path    string
	archive string
	report  *converter.Report
	err     error
}

func runGenerate(cmd *cobra.Command) error {
	if generateFlags.output != "" {
		app.cfg.OutputDir = generateFlags.output
	}

	files, err := utils.DiscoverDatasets(generateFlags.input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No datasets found.")
		return nil
	}

	tmpl, err := templateStore().Load(generateFlags.template)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	fm := utils.NewFileManager(app.cfg.OutputDir, app.cfg.TemplatesDir)
	if !generateFlags.dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	var renderer converter.DocumentRenderer
	if !generateFlags.dryRun {
		r, err := newRenderer()
		if err != nil {
			return err
		}
		defer r.Close()
		renderer = r
	}

	conv := converter.New(app.registry, renderer,
		converter.WithLogger(app.log),
		converter.WithPrivacyMasking(maskEnabled(cmd, generateFlags.mask)),
		converter.WithProgress(printProgress),
	)

	fmt.Println("=== Billing Note Emitter ===")
	fmt.Printf("Template: %s\n", tmpl.Name)

	written := make(map[string]struct{})
	var results []datasetResult

	for _, path := range files {
		fmt.Printf("\nProcessing %s\n", path)

		res := datasetResult{path: path}
		table, err := converter.LoadFile(path, loadOptions(generateFlags.sheet, generateFlags.delimiter))
		if err != nil {
			res.err = err
			results = append(results, res)
			continue
		}

		if generateFlags.dryRun {
			res.report, res.err = conv.DryRun(ctx, table)
		} else {
			res.archive, res.report, res.err = generateDataset(ctx, conv, fm, table, tmpl, written)
		}
		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}

	return printGenerateSummary(results)
}

// generateDataset runs one dataset and writes its archive and summary log.
func generateDataset(ctx context.Context, conv *converter.Converter, fm *utils.FileManager, table *types.Table, tmpl *render.Template, written map[string]struct{}) (string, *converter.Report, error) {
	out, err := conv.Run(ctx, table, tmpl)
	if err != nil {
		return "", nil, err
	}
	report := out.Report

	source := strings.TrimSuffix(filepath.Base(table.Source), filepath.Ext(table.Source))
	name := utils.GenerateOutputFileName(app.cfg.ArchiveNameFormat, report.StartedAt, map[string]string{"source": source})
	if _, dup := written[name]; dup || utils.FileExists(filepath.Join(fm.OutputDir, name)) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "_" + source + ".zip"
	}
	written[name] = struct{}{}

	archivePath, err := fm.WriteArchive(name, out.Archive)
	if err != nil {
		return "", report, err
	}

	logPath, err := utils.WriteSummaryLog(utils.ProcessingSummary{
		RunID:     report.RunID,
		Source:    report.Source,
		Template:  report.Template,
		Archive:   archivePath,
		StartTime: report.StartedAt,
		EndTime:   report.StartedAt.Add(report.Duration),
		Total:     report.Total(),
		Successes: report.Successes(),
		Failures:  report.Failures(),
		Outcome:   string(report.Outcome()),
		Errors:    report.Errors(),
	}, fm.OutputDir)
	if err != nil {
		app.log.Warn("Failed to write summary log", zap.Error(err))
	} else {
		app.log.Debug("Summary log written", zap.String("path", logPath))
	}

	return archivePath, report, nil
}

// printProgress rewrites a single progress line.
func printProgress(done, total int) {
	fmt.Printf("\r  %d/%d rows", done, total)
	if done == total {
		fmt.Println()
	}
}

// printGenerateSummary prints the per-dataset outcome and returns an error
// when any dataset could not be processed at all.
func printGenerateSummary(results []datasetResult) error {
	fmt.Println("\n=== Summary ===")

	failed := 0
	for _, res := range results {
		fmt.Printf("\n%s\n", res.path)

		if res.err != nil {
			failed++
			var colErr *validation.ColumnsError
			if errors.As(res.err, &colErr) {
				fmt.Println("  Missing required columns:")
				for _, m := range colErr.Missing {
					fmt.Printf("    - %s\n", m)
				}
			} else {
				fmt.Printf("  Error: %v\n", res.err)
			}
			continue
		}

		r := res.report
		fmt.Printf("  Rows:     %d\n", r.Total())
		fmt.Printf("  Notes:    %d\n", r.Successes())
		fmt.Printf("  Failed:   %d\n", r.Failures())
		fmt.Printf("  Outcome:  %s\n", r.Outcome())
		fmt.Printf("  Duration: %s\n", r.Duration.Round(time.Millisecond))
		if res.archive != "" {
			fmt.Printf("  Archive:  %s\n", res.archive)
		}
		for _, e := range r.Errors() {
			fmt.Printf("  ! %s\n", e)
		}
		if generateFlags.dryRun {
			for _, row := range r.Results {
				if row.Succeeded() {
					fmt.Printf("  %d -> %s\n", row.Line, row.FileName)
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d dataset(s) could not be processed", failed, len(results))
	}
	return nil
}
