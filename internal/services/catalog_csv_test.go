package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteger(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"-3", -3},
		{" -3 ", -3},
		{"1.000", 1},
		{"1.234.567", 1234567},
		{"2,5", 2},
		{"-2,5", -2},
		{"1.000,75", 1000},
		{"1,000", 1000},
		{"qtd: -4 un", -4},
		{"abc", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseInteger(tc.in), "entrada %q", tc.in)
	}
}

func TestParseClientsCSV(t *testing.T) {
	raw := []byte("Código;Nome Fantasia;Razão Social;CNPJ/CPF;Setor;Telefone;Endereço;Bairro;Cidade;CEP\n" +
		"001001;Bar do Zé;Ze Ltda;12.345.678/0001-90;Setor 015;11 99999-0000;Rua A 10;Centro;Registro;11900-000\n" +
		";Sem Codigo;;;;;;;;\n" +
		"2002;Mercado Azul;Azul ME;123.456.789-00;7;;Rua B;Vila;Iguape;\n")

	clients, err := ParseClientsCSV(raw, "01.20.11.csv")
	require.NoError(t, err)
	require.Len(t, clients, 2)

	ze, ok := clients["1001"]
	require.True(t, ok, "o código canônico corta zeros à esquerda")
	assert.Equal(t, "001001", ze.ClientCode)
	assert.Equal(t, "Bar do Zé", ze.NomeFantasia)
	assert.Equal(t, "12345678000190", ze.CnpjCpf)
	assert.Equal(t, "015", ze.Setor)
	assert.Equal(t, "11900-000", ze.Cep)

	azul := clients["2002"]
	assert.Equal(t, "345678900", azul.CnpjCpf, "CPF guarda os 9 dígitos finais")
	assert.Equal(t, "7", azul.Setor)
}

func TestParseClientsCSVCommaDelimited(t *testing.T) {
	raw := []byte("codigo,nome fantasia,cidade\n10,Adega Central,Registro\n")
	clients, err := ParseClientsCSV(raw, "clientes.csv")
	require.NoError(t, err)
	assert.Equal(t, "Adega Central", clients["10"].NomeFantasia)
}

func TestParseClientsCSVWindows1252(t *testing.T) {
	raw := []byte("codigo;nome fantasia\n5;JO\xC3O DO BAR\n")
	clients, err := ParseClientsCSV(raw, "clientes.csv")
	require.NoError(t, err)
	assert.Equal(t, "JOÃO DO BAR", clients["5"].NomeFantasia)
}

func TestParseClientsCSVErrors(t *testing.T) {
	_, err := ParseClientsCSV([]byte("codigo;nome fantasia\n"), "clientes.csv")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = ParseClientsCSV([]byte("nome fantasia;cidade\nBar;Registro\n"), "clientes.csv")
	var missingErr *MissingColumnError
	assert.ErrorAs(t, err, &missingErr)

	_, err = ParseClientsCSV([]byte("codigo;nome fantasia\n;Bar\n"), "clientes.csv")
	assert.ErrorAs(t, err, &validationErr)
}

func TestParseInventoryCSV(t *testing.T) {
	raw := []byte("Código;Descrição;Baixados;Saldo;Nro Serie Mercadoria;Nro Comodato;Data Emissao\n" +
		"001001;REFRIGERADOR VERTICAL 410L;-1;0;RG123;C-9;15/03/2024\n" +
		"001001;GARRAFA RETORNAVEL 600ML;0;-24;;;\n" +
		"001001;CAIXA PLASTICA 600ML;2;3;;;\n" +
		"2002;;-5;;;;\n" +
		";GARRAFEIRA;-1;;;;\n")

	inventory, skipped, err := ParseInventoryCSV(raw, "02.02.20.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, skipped, "saldo não-negativo, descrição vazia e código vazio")
	require.Len(t, inventory["1001"], 2)

	fridge := inventory["1001"][0]
	assert.Equal(t, ItemTypeRefrigerador, fridge.ItemType)
	assert.Equal(t, 1, fridge.OpenQuantity)
	assert.Equal(t, -1, fridge.SourceBaixados)
	assert.Equal(t, "RG123", fridge.RG)
	assert.Equal(t, "C-9", fridge.ComodatoNumber)
	assert.Equal(t, "15/03/2024", fridge.IssueDate)

	bottles := inventory["1001"][1]
	assert.Equal(t, ItemTypeVasilhameGarrafa, bottles.ItemType)
	assert.Equal(t, 24, bottles.OpenQuantity, "sem baixados negativo vale o saldo")
	assert.Equal(t, "600ml", bottles.VolumeKey)
}

func TestParseInventoryCSVBaixadosWinsOverSaldo(t *testing.T) {
	raw := []byte("codigo;descricao;baixados;saldo\n1;GARRAFEIRA;-2;-10\n")
	inventory, skipped, err := ParseInventoryCSV(raw, "base.csv")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, inventory["1"], 1)
	assert.Equal(t, 2, inventory["1"][0].OpenQuantity)
}

func TestParseInventoryCSVRGFallbackColumn(t *testing.T) {
	raw := []byte("codigo;descricao;baixados;controla nr serie\n1;REFRIGERADOR;-1;SER-77\n")
	inventory, _, err := ParseInventoryCSV(raw, "base.csv")
	require.NoError(t, err)
	assert.Equal(t, "SER-77", inventory["1"][0].RG)
}

func TestParseInventoryCSVRequiresBalanceColumn(t *testing.T) {
	_, _, err := ParseInventoryCSV([]byte("codigo;descricao\n1;GARRAFEIRA\n"), "base.csv")
	var missingErr *MissingColumnError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "baixados ou saldo", missingErr.Field)
}

func TestReadTabularRowsDuplicateHeaders(t *testing.T) {
	raw := []byte("codigo;cnpj;cnpj\n1;111;222\n")
	rows, headerMap, err := readTabularRows(raw, "arq.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "111", rows[0]["cnpj"])
	assert.Equal(t, "222", rows[0]["cnpj__2"])
	assert.Equal(t, []string{"cnpj", "cnpj__2"}, headerMap["cnpj"])
}
