package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Teste 123", "Teste 123"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"accents kept", "café", "café"},
		{"compatibility forms folded", "ＡＢＣ １２３", "ABC 123"},
		{"ligature folded", "ﬁscal", "fiscal"},
		{"control characters stripped", "Rua\x00 das\x07 Flores", "Rua das Flores"},
		{"zero width stripped", "Hube\u200bEnergy", "HubeEnergy"},
		{"decomposed accent composed", "Joa\u0303o", "Jo\u00e3o"},
		{"trimmed", "  Maria  ", "Maria"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"São Paulo",
		"e\u200d\u0301",
		"  Conta\tvinculada\n",
		"ＲＵＡ　Ａ",
		"\u0301inicio",
		"R$ 1.234,56",
	}

	for _, input := range inputs {
		once := SanitizeText(input)
		assert.Equal(t, once, SanitizeText(once), "input %q", input)
	}
}

func TestFlattenLines(t *testing.T) {
	assert.Equal(t, "Banco 001 Agencia 1234", FlattenLines("Banco 001\nAgencia 1234"))
	assert.Equal(t, "a b c", FlattenLines("a\r\nb\rc"))
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"R$ 1.000,50", 1000.50},
		{"1.000,50", 1000.50},
		{"1000.50", 1000.50},
		{"1234,56", 1234.56},
		{"R$1.234.567,89", 1234567.89},
		{"  42  ", 42},
		{"-1.234,56", -1234.56},
		{"", 0},
		{"abc", 0},
		{"R$", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseCurrency(tt.input), 1e-9)
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000.50", "R$ 1.000,50"},
		{"1000.5", "R$ 1.000,50"},
		{"1.234,56", "R$ 1.234,56"},
		{"R$ 99,9", "R$ 99,90"},
		{"1234567", "R$ 1.234.567,00"},
		{"0", "R$ 0,00"},
		{"", "R$ 0,00"},
		{"invalid", "invalid"},
		{"-15,5", "R$ -15,50"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.input))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "R$ 1.000,50", FormatAmount(1000.50))
	assert.Equal(t, "R$ 0,00", FormatAmount(0))
	assert.Equal(t, "R$ 12,35", FormatAmount(12.345))
}

func TestCurrency_RoundTrip(t *testing.T) {
	values := []float64{0, 0.01, 0.1, 1, 9.99, 10.5, 999.99, 1000, 1234.56, 98765.43, 1000000, 123456789.12}

	for _, v := range values {
		formatted := FormatAmount(v)
		assert.InDelta(t, v, ParseCurrency(formatted), 1e-6, "value %v formatted as %q", v, formatted)
		assert.InDelta(t, v, ParseCurrency(FormatCurrency(formatted)), 1e-6)
	}
}

func TestCleanFilenameText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"São Paulo", "SAO_PAULO"},
		{"Empresa S.A.", "EMPRESA_SA"},
		{"João & Maria", "JOAO__MARIA"},
		{"10/05/2024", "10052024"},
		{"10-05-2024", "10-05-2024"},
		{"../etc/passwd", "ETCPASSWD"},
		{"  Ação\tLtda  ", "ACAO_LTDA"},
		{"", ""},
		{"日本", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilenameText(tt.input))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "10/05/2024", FormatDate("2024-05-10"))
	assert.Equal(t, "10/05/2024", FormatDate("2024-05-10 00:00:00"))
	assert.Equal(t, "10/05/2024", FormatDate("10/05/2024"))
	assert.Equal(t, "Maio/2024", FormatDate("Maio/2024"))
	assert.Equal(t, "", FormatDate(""))
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "07/03/2025", FormatDisplayDate(time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC)))
}
