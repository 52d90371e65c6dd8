package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"001001", "1001"},
		{"1001", "1001"},
		{" 10-01 ", "1001"},
		{"ab-12", "AB12"},
		{"0A01", "0A01"},
		{"000", "0"},
		{"", ""},
		{"  ", ""},
		{"--", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanonicalCode(tc.in), "entrada %q", tc.in)
	}
}

func TestNormalizeLookupText(t *testing.T) {
	assert.Equal(t, "sao paulo", NormalizeLookupText("  SÃO   PAULO "))
	assert.Equal(t, "agua rasa", NormalizeLookupText("Água-Rasa"))
	assert.Equal(t, "rua b", NormalizeLookupText("rua_b"))
	assert.Equal(t, "", NormalizeLookupText("   "))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "razao social", NormalizeHeader(" Razão Social "))
	assert.Equal(t, "cnpj cpf", NormalizeHeader("CNPJ/CPF"))
	assert.Equal(t, "nro comodato", NormalizeHeader("Nro. Comodato"))
}

func TestCodeLookupTokensIntersection(t *testing.T) {
	a := CodeLookupTokens("rg-001")
	b := CodeLookupTokens("RG001")
	assert.True(t, a.Intersects(b))

	digits := CodeLookupTokens("001")
	assert.True(t, a.Intersects(digits), "a série digitada só com números deve casar")

	other := CodeLookupTokens("RG002")
	assert.False(t, a.Intersects(other))

	assert.Empty(t, CodeLookupTokens("  "))
}

func TestEquipmentLookupTokens(t *testing.T) {
	tokens := EquipmentLookupTokens("RG-10", "ETQ 7")
	assert.True(t, tokens.Intersects(CodeLookupTokens("rg10")))
	assert.True(t, tokens.Intersects(CodeLookupTokens("etq-7")))
	assert.False(t, tokens.Intersects(CodeLookupTokens("rg99")))
}
