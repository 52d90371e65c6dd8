package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRefrigeratorsCSV(t *testing.T) {
	db := newTestDB(t)
	es := NewEquipmentService(db)
	catalog := NewCatalogService(db)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	existing := fridgeInput("RG-500")
	existing.TagCode = strPtr("ETQ-1")
	_, err = es.Create(existing)
	require.NoError(t, err)

	csv := []byte("tipo;modelo;marca;voltagem;rg;etiqueta\n" +
		"refrigerador;VN44;Metalfrio;220;RG-600;\n" + // ok
		"refrigerador;VN44;Metalfrio;220;rg 600;\n" + // duplicada no arquivo
		"refrigerador;VN44;Metalfrio;220;RG-500;\n" + // já no cadastro
		"refrigerador;VN44;Metalfrio;220;RG123;\n" + // em aberto no 02.02.20
		"caixa termica;Caixa 60L;Coleman;n/a;RG-601;\n" + // fora do escopo
		"refrigerador;VN44;;220;RG-602;\n" + // sem marca
		"refrigerador;VN44;Metalfrio;999;RG-603;\n" + // voltagem inválida
		"refrigerador;VN44;Metalfrio;110;RG-604;etq-1\n" + // etiqueta em uso
		";;;;;\n" + // linha em branco é ignorada
		"refrigerador;VH50;Consul;bivolt;RG-700;ETQ-2\n")

	result, err := es.ImportRefrigeratorsCSV(csv, "planilha.csv")
	require.NoError(t, err)

	assert.Equal(t, 9, result.TotalRows)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, 1, result.DuplicatesInFile)
	assert.Equal(t, 1, result.DuplicatesInRegistry)
	assert.Equal(t, 1, result.DuplicatesInLedger)
	assert.Equal(t, 3, result.DuplicatedByRG)
	assert.Equal(t, 1, result.IgnoredNonRefrigerator)
	assert.Equal(t, 3, result.InvalidRows)
	assert.Len(t, result.Errors, 3)

	imported, err := es.List(EquipmentFilter{Query: "RG-700"})
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, EquipmentStatusNovo, imported[0].Status)
	assert.Equal(t, "bivolt", imported[0].Voltage)

	// Mesmo arquivo de novo: tudo cai como duplicata do cadastro
	result, err = es.ImportRefrigeratorsCSV(csv, "planilha.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedCount)
	assert.Equal(t, 4, result.DuplicatesInRegistry)
}

func TestImportRefrigeratorsCSVHeaderValidation(t *testing.T) {
	es := NewEquipmentService(newTestDB(t))
	var vErr *ValidationError

	_, err := es.ImportRefrigeratorsCSV(nil, "vazio.csv")
	require.ErrorAs(t, err, &vErr)

	_, err = es.ImportRefrigeratorsCSV([]byte("modelo;marca\nVN44;Metalfrio\n"), "incompleto.csv")
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "TIPO")
}
