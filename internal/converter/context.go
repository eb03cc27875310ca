// =============================================================================
// Billing Note Emitter - Context Builder
// =============================================================================
//
// The context builder turns one dataset row into the flat set of template
// variables a billing note is rendered from.
//
// BUILD ORDER:
//   1. Resolve every field through its registry aliases
//   2. Combine street, city and state into the customer address
//   3. Apply display formats (currency, dates); keep the raw total
//   4. Default the issue date to today
//   5. Mask name and tax id when requested (name first, using the
//      unmasked tax id to tell companies from individuals)
//   6. Legacy layout fallbacks for bank details and installation
//   7. Bank details sentinel
//
// =============================================================================

package converter

import (
	"strings"
	"time"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/normalize"
	"github.com/hube-energy/emissor/internal/privacy"
	"github.com/hube-energy/emissor/internal/types"
)

// TemplateKeys are the variables every note template may reference, in
// display order.
var TemplateKeys = []string{
	config.FieldIssuerName,
	config.FieldIssuerAddress,
	config.FieldIssuerTaxID,
	config.FieldCustomerName,
	config.FieldCustomerAddress,
	config.FieldCustomerTaxID,
	config.FieldAccountNumber,
	config.FieldBillingNumber,
	config.FieldInstallation,
	config.FieldIssueDate,
	config.FieldDueDate,
	config.FieldReferenceMonth,
	config.FieldTotal,
	config.FieldSavings,
	config.FieldBankDetails,
}

// =============================================================================
// DOCUMENT CONTEXT
// =============================================================================

// Context is the resolved, display-ready data of one billing note.
type Context struct {
	// Values maps every template key to its display text.
	Values map[string]string

	// RawTotal is the numeric amount due, before formatting. It is never
	// rendered; it feeds aggregate totals.
	RawTotal float64
}

// Get returns the display value of key.
func (c *Context) Get(key string) string {
	return c.Values[key]
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder builds document contexts from rows.
type Builder struct {
	registry *config.Registry
	mask     bool
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMasking enables privacy masking of the customer name and tax id.
func WithMasking(mask bool) BuilderOption {
	return func(b *Builder) { b.mask = mask }
}

// WithClock sets the clock used for the default issue date.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder over a field registry.
func NewBuilder(registry *config.Registry, opts ...BuilderOption) *Builder {
	b := &Builder{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// resolve looks key up through its registry aliases and default.
func (b *Builder) resolve(row types.Row, key string) string {
	return ResolveField(row, b.registry.Aliases(key), b.registry.Default(key))
}

// Build produces the document context of row.
func (b *Builder) Build(row types.Row) *Context {
	values := make(map[string]string, len(TemplateKeys))

	for _, key := range []string{
		config.FieldIssuerName,
		config.FieldIssuerAddress,
		config.FieldIssuerTaxID,
		config.FieldAccountNumber,
		config.FieldBillingNumber,
		config.FieldInstallation,
		config.FieldReferenceMonth,
		config.FieldIssueDate,
		config.FieldDueDate,
		config.FieldSavings,
		config.FieldBankDetails,
	} {
		values[key] = b.transformField(key, b.resolve(row, key))
	}

	values[config.FieldCustomerAddress] = joinAddress(
		b.resolve(row, config.FieldStreet),
		b.resolve(row, config.FieldCity),
		b.resolve(row, config.FieldState),
	)

	rawTotal := b.resolve(row, config.FieldTotal)
	values[config.FieldTotal] = b.transformField(config.FieldTotal, rawTotal)

	if values[config.FieldIssueDate] == "" {
		values[config.FieldIssueDate] = normalize.FormatDisplayDate(b.now())
	}

	values[config.FieldCustomerName], values[config.FieldCustomerTaxID] = b.identity(row)

	b.applyLegacyFallbacks(row, values)

	return &Context{
		Values:   values,
		RawTotal: normalize.ParseCurrency(rawTotal),
	}
}

// Identify resolves only the fields that identify a row in reports: the
// customer name (masked when masking is on) and the billing number.
func (b *Builder) Identify(row types.Row) (name, billingNumber string) {
	name, _ = b.identity(row)
	return name, b.resolve(row, config.FieldBillingNumber)
}

// identity resolves the customer name and tax id, masking both when
// enabled. The name is masked first: the legal entity check needs the
// unmasked tax id.
func (b *Builder) identity(row types.Row) (name, taxID string) {
	name = b.resolve(row, config.FieldCustomerName)
	taxID = b.resolve(row, config.FieldCustomerTaxID)

	if b.mask {
		name = privacy.MaskPersonalName(name, taxID)
		taxID = privacy.MaskTaxID(taxID)
	}
	return name, taxID
}

// applyLegacyFallbacks fills bank details and installation from their fixed
// legacy columns when named resolution found nothing, then applies the bank
// details sentinel.
func (b *Builder) applyLegacyFallbacks(row types.Row, values map[string]string) {
	sentinel := b.registry.BankDetailsSentinel
	layout := b.registry.LegacyLayout

	bank := values[config.FieldBankDetails]
	if bank == "" || bank == sentinel {
		if v, ok := ResolveLegacyPosition(row, layout.BankDetailsColumn); ok {
			values[config.FieldBankDetails] = v
		}
	}

	if values[config.FieldInstallation] == "" {
		if v, ok := ResolveLegacyPosition(row, layout.InstallationColumn); ok {
			values[config.FieldInstallation] = v
		}
	}

	if values[config.FieldBankDetails] == "" {
		values[config.FieldBankDetails] = sentinel
	}
}

// joinAddress combines the customer address parts, skipping blank ones:
// "Rua A, 1, Campinas - SP", "Rua A, 1, SP", "Campinas - SP".
func joinAddress(street, city, state string) string {
	locality := joinNonEmpty(" - ", city, state)
	return joinNonEmpty(", ", street, locality)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
