package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/types"
)

var completeHeaders = []string{
	"Nome", "Endereço", "Cidade", "UF", "CNPJ/CPF", "Número da conta",
	"Mês de Referência", "Total a pagar", "Dados bancários",
}

func TestValidateColumns_Complete(t *testing.T) {
	r := config.MustDefaultRegistry()
	assert.Empty(t, ValidateColumns(completeHeaders, r))
}

func TestValidateColumns_AlternateAliases(t *testing.T) {
	r := config.MustDefaultRegistry()
	headers := []string{
		"Cliente", "Endereco Consorcio", "UF", "CPF", "Conta vinculada",
		"Referencia", "Valor consolidado", "Numero da conta",
	}
	assert.Empty(t, ValidateColumns(headers, r))
}

func TestValidateColumns_MissingTaxID(t *testing.T) {
	r := config.MustDefaultRegistry()

	var headers []string
	for _, h := range completeHeaders {
		if h != "CNPJ/CPF" {
			headers = append(headers, h)
		}
	}

	missing := ValidateColumns(headers, r)
	assert.Equal(t, []string{"CNPJ/CPF (Colunas aceitas: CNPJ/CPF, CNPJ, CPF)"}, missing)
}

func TestValidateColumns_CollectsAllInRegistryOrder(t *testing.T) {
	r := config.MustDefaultRegistry()

	missing := ValidateColumns([]string{"Nome", "Endereço", "CNPJ"}, r)
	require.Len(t, missing, 5)
	assert.Equal(t, "UF (Colunas aceitas: UF)", missing[0])
	assert.Contains(t, missing[1], "Conta (Colunas aceitas:")
	assert.Contains(t, missing[2], "Referência (Colunas aceitas:")
	assert.Contains(t, missing[3], "Total a Pagar (Colunas aceitas:")
	assert.Contains(t, missing[4], "Dados Bancários (Colunas aceitas:")
}

func TestValidateColumns_ExactMatchOnly(t *testing.T) {
	r := config.MustDefaultRegistry()

	missing := ValidateColumns([]string{"uf"}, r)
	assert.Contains(t, missing, "UF (Colunas aceitas: UF)")
}

func TestValidate(t *testing.T) {
	r := config.MustDefaultRegistry()

	ok := types.NewTable("x.csv", completeHeaders, nil)
	assert.NoError(t, Validate(ok, r))

	bad := types.NewTable("x.csv", []string{"Nome"}, nil)
	err := Validate(bad, r)
	require.Error(t, err)

	var colErr *ColumnsError
	require.True(t, errors.As(err, &colErr))
	assert.Len(t, colErr.Missing, 7)
	assert.Contains(t, err.Error(), "missing required columns")
}
