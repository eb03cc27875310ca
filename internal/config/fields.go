// =============================================================================
// Billing Note Emitter - Field Registry
// =============================================================================
//
// The field registry maps every logical note field to the spreadsheet column
// names it may arrive under. Billing sheets come from different exports, so
// the same field is spelled with or without accents, abbreviated, or renamed
// entirely ("Total a pagar" vs "Valor consolidado").
//
// FILE FORMAT (fields.yaml):
//
//	fields:
//	  - key: razao_social          # template variable / logical name
//	    label: Nome/Razão Social   # friendly name used in diagnostics
//	    aliases: [Nome, Cliente]   # resolution order, first match wins
//	    accepts: []                # extra columns that satisfy validation only
//	    required: true
//	    default: ""
//	    format: ""                 # "", "currency" or "date"
//	legacy_layout:
//	  installation_column: 0
//	  bank_details_column: 29
//	bank_details_sentinel: Não Informado
//
// The registry is read once per run and never changes afterwards.
//
// =============================================================================

package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_fields.yaml
var defaultFieldsYAML []byte

// =============================================================================
// LOGICAL FIELD KEYS
// =============================================================================

// Keys of the fields the context builder reads. Most of them are also
// template variables; endereco, cidade and uf are combined into
// endereco_consorciado.
const (
	FieldIssuerName      = "nome_consorcio"
	FieldIssuerAddress   = "endereco_consorcio"
	FieldIssuerTaxID     = "cnpj_consorcio"
	FieldCustomerName    = "razao_social"
	FieldStreet          = "endereco"
	FieldCity            = "cidade"
	FieldState           = "uf"
	FieldCustomerTaxID   = "cnpj_consorciado"
	FieldAccountNumber   = "numero_conta"
	FieldBillingNumber   = "numero_cobranca"
	FieldInstallation    = "numero_instalacao"
	FieldIssueDate       = "data_emissao"
	FieldDueDate         = "data_vencimento"
	FieldReferenceMonth  = "mes_referencia"
	FieldTotal           = "total_pagar"
	FieldSavings         = "economia_mes"
	FieldBankDetails     = "dados_bancarios"
	FieldCustomerAddress = "endereco_consorciado"
)

// =============================================================================
// REGISTRY STRUCTURES
// =============================================================================

// FieldSpec describes one logical field.
type FieldSpec struct {
	// Key is the logical name, also used as the template variable name.
	Key string `yaml:"key"`

	// Label is the friendly name shown in missing-column diagnostics.
	Label string `yaml:"label"`

	// Aliases are the accepted column names in resolution order.
	Aliases []string `yaml:"aliases"`

	// Accepts lists additional column names that satisfy the required-column
	// check without being used for value resolution.
	Accepts []string `yaml:"accepts,omitempty"`

	// Required marks fields whose absence aborts the whole run.
	Required bool `yaml:"required"`

	// Default is used when no alias yields a value.
	Default string `yaml:"default,omitempty"`

	// Format selects the display transformation applied after resolution.
	// Valid values: "" (text), "currency", "date"
	Format string `yaml:"format,omitempty"`
}

// Display formats understood by the context builder.
const (
	FormatText     = ""
	FormatCurrency = "currency"
	FormatDate     = "date"
)

// AcceptedColumns returns every column name that satisfies the field,
// aliases first.
func (f FieldSpec) AcceptedColumns() []string {
	out := make([]string, 0, len(f.Aliases)+len(f.Accepts))
	out = append(out, f.Aliases...)
	out = append(out, f.Accepts...)
	return out
}

// LegacyLayout holds the column positions of the oldest billing sheet
// layout, used when a field cannot be found by name.
type LegacyLayout struct {
	InstallationColumn int `yaml:"installation_column"`
	BankDetailsColumn  int `yaml:"bank_details_column"`
}

// Registry is the complete set of field specifications.
type Registry struct {
	Fields              []FieldSpec  `yaml:"fields"`
	LegacyLayout        LegacyLayout `yaml:"legacy_layout"`
	BankDetailsSentinel string       `yaml:"bank_details_sentinel"`

	index map[string]int
}

// =============================================================================
// REGISTRY LOADING
// =============================================================================

// DefaultRegistry returns the built-in registry covering the known billing
// sheet exports.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultFieldsYAML)
}

// MustDefaultRegistry is DefaultRegistry for callers that cannot recover
// from a broken embedded file.
func MustDefaultRegistry() *Registry {
	r, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRegistry loads a registry from a YAML file. An empty path returns the
// default registry.
//
// PARAMETERS:
//   - path: Path to a fields.yaml file, or "".
//
// RETURNS:
//   - The parsed and validated registry.
//   - An error if the file cannot be read, parsed, or is inconsistent.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file: %w", err)
	}

	r, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("fields file %s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry decodes and validates registry YAML. Omitted legacy layout
// keys and sentinel keep their standard values.
func ParseRegistry(data []byte) (*Registry, error) {
	r := Registry{
		LegacyLayout:        LegacyLayout{InstallationColumn: 0, BankDetailsColumn: 29},
		BankDetailsSentinel: "Não Informado",
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse fields: %w", err)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Registry) validate() error {
	if len(r.Fields) == 0 {
		return fmt.Errorf("no fields defined")
	}

	r.index = make(map[string]int, len(r.Fields))
	for i, f := range r.Fields {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return fmt.Errorf("field %d: key is required", i+1)
		}
		if _, dup := r.index[key]; dup {
			return fmt.Errorf("field %q defined twice", key)
		}
		if len(f.Aliases) == 0 && len(f.Accepts) == 0 {
			return fmt.Errorf("field %q: at least one alias is required", key)
		}
		switch f.Format {
		case FormatText, FormatCurrency, FormatDate:
		default:
			return fmt.Errorf("field %q: unknown format %q", key, f.Format)
		}
		if r.Fields[i].Label == "" {
			r.Fields[i].Label = key
		}
		r.Fields[i].Key = key
		r.index[key] = i
	}

	if r.LegacyLayout.InstallationColumn < 0 || r.LegacyLayout.BankDetailsColumn < 0 {
		return fmt.Errorf("legacy_layout columns must not be negative")
	}

	r.BankDetailsSentinel = strings.TrimSpace(r.BankDetailsSentinel)
	if r.BankDetailsSentinel == "" {
		return fmt.Errorf("bank_details_sentinel must not be empty")
	}

	return nil
}

// =============================================================================
// REGISTRY LOOKUPS
// =============================================================================

// Field returns the specification for key.
func (r *Registry) Field(key string) (FieldSpec, bool) {
	i, ok := r.index[key]
	if !ok {
		return FieldSpec{}, false
	}
	return r.Fields[i], true
}

// Aliases returns the resolution aliases of key, or nil when it is unknown.
func (r *Registry) Aliases(key string) []string {
	f, _ := r.Field(key)
	return f.Aliases
}

// Default returns the default value of key.
func (r *Registry) Default(key string) string {
	f, _ := r.Field(key)
	return f.Default
}

// Required returns the required fields in registry order.
func (r *Registry) Required() []FieldSpec {
	var out []FieldSpec
	for _, f := range r.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}
