package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeClientsWithInventoryFillsEmptyOnly(t *testing.T) {
	clients := map[string]ClientRecord{
		"1001": {
			ClientCode:   "001001",
			NomeFantasia: "Bar do Zé",
			Cidade:       "",
		},
	}
	inventory := map[string][]InventoryRecord{
		"1001": {
			{
				Description: "GARRAFEIRA",
				ClientSnapshot: ClientRecord{
					NomeFantasia: "Nome do Relatório",
					Cidade:       "Registro",
				},
			},
		},
	}

	merged := MergeClientsWithInventory(clients, inventory)
	record := merged["1001"]
	assert.Equal(t, "Bar do Zé", record.NomeFantasia, "o cadastro nunca é sobrescrito")
	assert.Equal(t, "Registro", record.Cidade, "campo vazio recebe o snapshot")
	assert.Equal(t, "001001", record.ClientCode)
}

func TestMergeClientsWithInventoryCreatesMissingClients(t *testing.T) {
	inventory := map[string][]InventoryRecord{
		"77": {
			{
				Description: "REFRIGERADOR",
				ClientSnapshot: ClientRecord{
					ClientCode:   "0077",
					NomeFantasia: "Ponto Novo",
				},
			},
		},
		"88": {
			{Description: "GARRAFEIRA"},
		},
	}

	merged := MergeClientsWithInventory(map[string]ClientRecord{}, inventory)
	require.Len(t, merged, 2)
	assert.Equal(t, "0077", merged["77"].ClientCode, "usa o código cru do snapshot quando existe")
	assert.Equal(t, "Ponto Novo", merged["77"].NomeFantasia)
	assert.Equal(t, "88", merged["88"].ClientCode, "sem snapshot fica o código canônico")
}

func TestClearManualClientFields(t *testing.T) {
	record := ClientRecord{
		NomeFantasia:           "Bar",
		Telefone:               "11 99999-0000",
		ResponsavelCliente:     "Maria",
		ResponsavelRetirada:    "José",
		ResponsavelConferencia: "Ana",
	}
	ClearManualClientFields(&record)
	assert.Equal(t, "Bar", record.NomeFantasia)
	assert.Empty(t, record.Telefone)
	assert.Empty(t, record.ResponsavelCliente)
	assert.Empty(t, record.ResponsavelRetirada)
	assert.Empty(t, record.ResponsavelConferencia)
}
