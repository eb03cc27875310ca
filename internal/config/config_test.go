package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./templates", cfg.TemplatesDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.Equal(t, 30*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, "A4", cfg.Renderer.Paper)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(20), cfg.Server.MaxUploadMB)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
templates_dir: /srv/templates
encoding: latin-1
mask_by_default: true
renderer:
  timeout: 5s
  no_sandbox: true
server:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/templates", cfg.TemplatesDir)
	assert.Equal(t, "latin-1", cfg.Encoding)
	assert.True(t, cfg.MaskByDefault)
	assert.Equal(t, 5*time.Second, cfg.Renderer.Timeout)
	assert.True(t, cfg.Renderer.NoSandbox)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "./output", cfg.OutputDir)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("EMISSOR_OUTPUT_DIR", "/tmp/notas")
	t.Setenv("EMISSOR_RENDERER_REMOTE_URL", "ws://chrome:9222")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/notas", cfg.OutputDir)
	assert.Equal(t, "ws://chrome:9222", cfg.Renderer.RemoteURL)
}

func TestLoad_RejectsUnknownEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encoding: ebcdic\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ebcdic")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"latin-1", func(c *Config) { c.Encoding = "latin-1" }, ""},
		{"letter paper", func(c *Config) { c.Renderer.Paper = "Letter" }, ""},
		{"unknown paper", func(c *Config) { c.Renderer.Paper = "B5" }, "renderer.paper"},
		{"negative timeout", func(c *Config) { c.Renderer.Timeout = -time.Second }, "renderer.timeout"},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }, "server.max_upload_mb"},
		{"no address", func(c *Config) { c.Server.Addr = "" }, "server.addr must be set"},
		{"no output dir", func(c *Config) { c.OutputDir = "" }, "output_dir must be set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Notas_{short}.zip", cfg.ArchiveNameFormat)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	var labels []string
	for _, f := range r.Required() {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{
		"Nome/Razão Social", "Endereço", "UF", "CNPJ/CPF",
		"Conta", "Referência", "Total a Pagar", "Dados Bancários",
	}, labels)

	assert.Equal(t, "HUBE ENERGY", r.Default(FieldIssuerName))
	assert.Equal(t, "0", r.Default(FieldTotal))
	assert.Equal(t, 0, r.LegacyLayout.InstallationColumn)
	assert.Equal(t, 29, r.LegacyLayout.BankDetailsColumn)
	assert.Equal(t, "Não Informado", r.BankDetailsSentinel)

	bank, ok := r.Field(FieldBankDetails)
	require.True(t, ok)
	assert.Equal(t, []string{"Dados bancários", "Dados bancarios", "Pagamento"}, bank.Aliases)
	assert.Contains(t, bank.AcceptedColumns(), "Numero da conta")
}

func TestRegistry_UnknownKey(t *testing.T) {
	r := MustDefaultRegistry()

	_, ok := r.Field("inexistente")
	assert.False(t, ok)
	assert.Nil(t, r.Aliases("inexistente"))
	assert.Equal(t, "", r.Default("inexistente"))
}

func TestLoadRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	content := `
fields:
  - key: razao_social
    aliases: [Cliente]
    required: true
bank_details_sentinel: N/A
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	f, ok := r.Field(FieldCustomerName)
	require.True(t, ok)
	assert.Equal(t, "razao_social", f.Label)
	assert.Equal(t, "N/A", r.BankDetailsSentinel)
	assert.Equal(t, 29, r.LegacyLayout.BankDetailsColumn)
}

func TestParseRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "fields: []\n"},
		{"missing key", "fields:\n  - aliases: [A]\n"},
		{"duplicate key", "fields:\n  - key: a\n    aliases: [A]\n  - key: a\n    aliases: [B]\n"},
		{"no aliases", "fields:\n  - key: a\n"},
		{"negative column", "fields:\n  - key: a\n    aliases: [A]\nlegacy_layout:\n  bank_details_column: -1\n"},
		{"unknown format", "fields:\n  - key: a\n    aliases: [A]\n    format: upper\n"},
		{"empty sentinel", "fields:\n  - key: a\n    aliases: [A]\nbank_details_sentinel: \"\"\n"},
		{"blank sentinel", "fields:\n  - key: a\n    aliases: [A]\nbank_details_sentinel: \"   \"\n"},
		{"malformed", "fields: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}
