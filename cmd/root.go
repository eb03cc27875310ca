// =============================================================================
// Billing Note Emitter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (emissor)
//   ├── generateCmd  (emissor generate)
//   ├── validateCmd  (emissor validate)
//   ├── previewCmd   (emissor preview)
//   ├── templatesCmd (emissor templates)
//   ├── serveCmd     (emissor serve)
//   └── versionCmd   (emissor version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the main configuration (file + EMISSOR_* environment)
//   2. Loads the field registry
//   3. Builds the logger
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/converter"
	"github.com/hube-energy/emissor/internal/logger"
	"github.com/hube-energy/emissor/internal/render"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// app holds what every subcommand needs. It is filled in before the
// subcommand runs.
var app struct {
	cfg      *config.Config
	registry *config.Registry
	log      *zap.Logger
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "emissor",
	Short: "Billing Note Emitter - one PDF billing note per spreadsheet row",
	Long: `Billing Note Emitter reads a billing spreadsheet (CSV or XLSX), renders
one PDF billing note per row from an HTML template, and bundles the notes
into a ZIP archive together with a per-row processing report.

Key Features:
  - Column aliases configurable per field (fields.yaml)
  - Brazilian currency and date formatting
  - Optional masking of customer names and CPF/CNPJ
  - A failing row never stops the batch; every row is reported
  - Command line and HTTP front-ends

Example Usage:
  emissor generate --input notas.xlsx            # Generate the archive
  emissor generate --input notas.csv --mask      # Mask personal data
  emissor validate --input notas.xlsx            # Check columns and totals
  emissor serve                                  # Start the HTTP front-end`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file; optional",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initApp loads configuration, the field registry and the logger.
func initApp() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	app.cfg = cfg
	app.registry = registry
	app.log = log
	return nil
}

func loadRegistry(cfg *config.Config) (*config.Registry, error) {
	if cfg.FieldsFile == "" {
		return config.DefaultRegistry()
	}
	registry, err := config.LoadRegistry(cfg.FieldsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load field registry: %w", err)
	}
	return registry, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// newRenderer starts the PDF renderer described by the configuration. The
// caller must Close it.
func newRenderer() (*render.Renderer, error) {
	chrome, err := render.NewChromeConverter(render.ChromeConfig{
		RemoteURL: app.cfg.Renderer.RemoteURL,
		NoSandbox: app.cfg.Renderer.NoSandbox,
		Paper:     app.cfg.Renderer.Paper,
		Logger:    app.log.Named("chrome"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start renderer: %w", err)
	}
	return render.NewRenderer(chrome, app.cfg.Renderer.Timeout), nil
}

// templateStore returns the configured template catalogue.
func templateStore() *render.Store {
	return render.NewStore(app.cfg.TemplatesDir, app.cfg.Encoding, app.cfg.DefaultTemplate)
}

// loadOptions returns the dataset decoding options of the configuration.
func loadOptions(sheet, delimiter string) converter.LoadOptions {
	return converter.LoadOptions{
		Encoding:  app.cfg.Encoding,
		Delimiter: delimiter,
		Sheet:     sheet,
	}
}

// maskEnabled resolves the --mask flag against the configured default.
func maskEnabled(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("mask") {
		return flag
	}
	return app.cfg.MaskByDefault
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
