// =============================================================================
// Billing Note Emitter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): directories, logging, renderer, HTTP server
//   2. Field Registry (fields.yaml): accepted column aliases per logical field
//
// PRIORITY (highest to lowest) for the main config:
//   1. Environment variables with the EMISSOR_ prefix
//      (e.g., EMISSOR_RENDERER_REMOTE_URL)
//   2. The config file given with --config
//   3. Built-in defaults
//
// Configuration objects are always passed explicitly to the components that
// need them. Nothing in this module is stored in package-level state.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spf13/viper"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// TemplatesDir is the directory containing the HTML note templates.
	// Default: "./templates"
	TemplatesDir string `mapstructure:"templates_dir"`

	// OutputDir is where generated archives and summary logs are written.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir" validate:"required"`

	// FieldsFile is the path to the field registry. When empty, the embedded
	// default registry is used.
	FieldsFile string `mapstructure:"fields_file"`

	// =========================================================================
	// GENERATION SETTINGS
	// =========================================================================

	// DefaultTemplate is the template used when none is selected.
	// When empty, the embedded note template is used.
	DefaultTemplate string `mapstructure:"default_template"`

	// ArchiveNameFormat defines the archive file name.
	// Placeholders: {timestamp}, {date}, {time}, {uuid}, {short}
	// Default: "Notas_{short}.zip"
	ArchiveNameFormat string `mapstructure:"archive_name_format"`

	// Encoding is the character encoding of CSV uploads and HTML templates.
	// Valid values: "utf-8", "latin-1", "windows-1252"
	// Default: "utf-8"
	Encoding string `mapstructure:"encoding" validate:"oneof=utf-8 utf8 UTF-8 latin-1 latin1 iso-8859-1 windows-1252 cp1252"`

	// MaskByDefault turns privacy masking on when no explicit choice is made.
	MaskByDefault bool `mapstructure:"mask_by_default"`

	// =========================================================================
	// SUB-SECTIONS
	// =========================================================================

	Log      LogConfig      `mapstructure:"log"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// RendererConfig holds settings for the headless Chrome PDF converter.
type RendererConfig struct {
	// RemoteURL is the DevTools URL of a running Chrome. When empty a local
	// browser is launched.
	RemoteURL string `mapstructure:"remote_url"`

	// Timeout bounds a single row's HTML-to-PDF conversion.
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// NoSandbox runs Chrome without its sandbox (needed as root in containers).
	NoSandbox bool `mapstructure:"no_sandbox"`

	// Paper is the page size: "A4" or "Letter".
	// Default: "A4"
	Paper string `mapstructure:"paper" validate:"oneof=A4 a4 Letter letter LETTER"`
}

// ServerConfig holds HTTP front-end settings.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `mapstructure:"addr" validate:"required"`

	// MaxUploadMB caps the uploaded dataset size.
	// Default: 20
	MaxUploadMB int64 `mapstructure:"max_upload_mb" validate:"gt=0"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the config file. A missing file is not an
//     error; defaults and environment variables still apply.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file exists but cannot be parsed, or is invalid.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	v.SetEnvPrefix("EMISSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	applyDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// applyDefaults registers default values for every known key. Registering
// every key also makes it reachable through AutomaticEnv during Unmarshal.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("templates_dir", "./templates")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("fields_file", "")
	v.SetDefault("default_template", "")
	v.SetDefault("archive_name_format", "Notas_{short}.zip")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("mask_by_default", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("renderer.remote_url", "")
	v.SetDefault("renderer.timeout", 30*time.Second)
	v.SetDefault("renderer.no_sandbox", false)
	v.SetDefault("renderer.paper", "A4")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 20)
}

// Validate checks the configuration for values no component can work with.
// Constraints are declared in the validate tags of the configuration
// structs; errors name the offending key as written in config.yaml.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fe := fieldErrs[0]
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("unsupported %s %q (accepted: %s)", key, fmt.Sprint(fe.Value()), fe.Param())
	case "required":
		return fmt.Errorf("%s must be set", key)
	default:
		return fmt.Errorf("invalid %s %v (%s=%s)", key, fe.Value(), fe.Tag(), fe.Param())
	}
}
