package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clientsCSVFixture = []byte("codigo;nome fantasia;razao social;cidade;telefone;responsavel\n" +
		"001001;Bar do Zé;Ze Ltda;Registro;11 99999-0000;Maria\n" +
		"2002;Mercado Azul;Azul ME;Iguape;;\n")

	inventoryCSVFixture = []byte("codigo;descricao;baixados;nro serie mercadoria\n" +
		"001001;REFRIGERADOR VERTICAL 410L;-1;RG123\n" +
		"001001;GARRAFA RETORNAVEL 600ML;-24;\n" +
		"3003;GARRAFEIRA METALICA;-2;\n" +
		"3003;CAIXA VAZIA;5;\n")
)

func TestCatalogIngestAndStatus(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	stats, err := catalog.Ingest(clientsCSVFixture, "01.20.11.csv", inventoryCSVFixture, "02.02.20.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ClientsCount, "dois do cadastro mais um só do inventário")
	assert.Equal(t, 2, stats.InventoryClients)
	assert.Equal(t, 3, stats.OpenItems)
	assert.Equal(t, 1, stats.SkippedRows)

	status, err := catalog.Status()
	require.NoError(t, err)
	assert.True(t, status.DatasetReady)
	require.NotNil(t, status.LoadedAt)
	assert.Equal(t, *stats, status.Stats)
}

func TestCatalogFindClient(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	lookup, err := catalog.FindClient("1001")
	require.NoError(t, err)
	assert.True(t, lookup.FoundAnything)
	assert.Equal(t, "1001", lookup.MatchedCode)
	assert.Equal(t, "Bar do Zé", lookup.Client.NomeFantasia)
	assert.Empty(t, lookup.Client.Telefone, "campos manuais voltam vazios")
	assert.Empty(t, lookup.Client.ResponsavelCliente)
	require.Len(t, lookup.Items, 2)
	assert.Equal(t, "GARRAFA RETORNAVEL 600ML", lookup.Items[1].Description,
		"ordenado por tipo e descrição")

	// Cliente do cadastro sem inventário
	lookup, err = catalog.FindClient("002002")
	require.NoError(t, err)
	assert.True(t, lookup.FoundAnything)
	assert.Empty(t, lookup.Items)

	// Código desconhecido abre formulário em branco
	lookup, err = catalog.FindClient("9999")
	require.NoError(t, err)
	assert.False(t, lookup.FoundAnything)
	assert.Equal(t, "9999", lookup.Client.ClientCode)

	// Código vazio não consulta nada
	lookup, err = catalog.FindClient("  ")
	require.NoError(t, err)
	assert.False(t, lookup.FoundAnything)
	assert.Empty(t, lookup.MatchedCode)
}

func TestCatalogLatestBatchWins(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	// Segundo upload: o cliente 1001 agora só tem uma linha em aberto
	newInventory := []byte("codigo;descricao;baixados\n1001;GARRAFEIRA NOVA;-1\n")
	stats, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", newInventory, "base.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OpenItems)

	lookup, err := catalog.FindClient("1001")
	require.NoError(t, err)
	require.Len(t, lookup.Items, 1, "itens de lotes antigos ficam fora")
	assert.Equal(t, "GARRAFEIRA NOVA", lookup.Items[0].Description)

	// Cliente que só existia no lote antigo continua cadastrado, sem itens
	lookup, err = catalog.FindClient("3003")
	require.NoError(t, err)
	assert.True(t, lookup.FoundAnything)
	assert.Empty(t, lookup.Items)
}
