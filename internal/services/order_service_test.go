package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

func newOrderServiceWithCatalog(t *testing.T) (*OrderService, *CatalogService) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)
	orders := NewOrderService(db)
	orders.SetCatalogService(catalog)
	return orders, catalog
}

func TestCreateWithdrawalFromInventory(t *testing.T) {
	orders, catalog := newOrderServiceWithCatalog(t)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	lookup, err := catalog.FindClient("1001")
	require.NoError(t, err)
	require.Len(t, lookup.Items, 2)
	fridge := lookup.Items[0]
	bottles := lookup.Items[1]

	order, doc, err := orders.CreateWithdrawal(WithdrawalRequest{
		Client: ClientRecord{ClientCode: "1001", Telefone: "(13) 99999-0000"},
		SelectedInventory: []InventorySelection{
			{ItemID: fridge.ID, Quantity: 0},
			{ItemID: bottles.ID, Quantity: 100},
		},
		ManualItems: []ManualItem{
			{Description: "CAIXA PLASTICA", Quantity: 2, ItemType: ItemTypeVasilhameCaixa, VolumeKey: "300ml"},
		},
		ObservacaoExtra: "retirar na portaria",
		DataRetirada:    "2026-08-31",
	})
	require.NoError(t, err)

	prefix := fmt.Sprintf("RET-%s-", time.Now().Format("20060102"))
	assert.Contains(t, order.OrderNumber, prefix)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "1001", order.ClientCode)
	assert.Equal(t, "Bar do Zé", order.NomeFantasia, "campo vazio do formulário vem do banco")
	assert.Equal(t, "(13) 99999-0000", order.Telefone, "campo manual fica como digitado")
	assert.Equal(t, "31/08/2026", order.WithdrawalDate)

	require.Len(t, order.Items, 3)
	assert.Equal(t, 1, order.Items[0].Quantity, "quantidade mínima é 1")
	assert.Equal(t, 24, order.Items[1].Quantity, "limitada ao saldo em aberto")
	assert.Equal(t, "2 caixas - 48 garrafas", order.Items[2].QuantityText)

	expectedSummary := "REFRIGERADOR VERTICAL 410L (RG RG123) - 1; " +
		"GARRAFA RETORNAVEL 600ML - 24; CAIXA PLASTICA - 2 caixas - 48 garrafas"
	assert.Equal(t, expectedSummary, order.SummaryLine)
	assert.Equal(t, expectedSummary+" | retirar na portaria", order.Observation)

	require.NotNil(t, doc)
	assert.Equal(t, order.OrderNumber, doc.OrderNumber)
	assert.Equal(t, []string{"Via do Cliente", "Via da Logística"}, doc.Copies)
	require.Len(t, doc.OpenEquipmentSummary, 2)
	assert.Equal(t, "REFRIGERADOR VERTICAL 410L - 1 un. | RGs: RG123", doc.OpenEquipmentSummary[0])
}

func TestCreateWithdrawalRequiresItems(t *testing.T) {
	orders, catalog := newOrderServiceWithCatalog(t)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	_, _, err = orders.CreateWithdrawal(WithdrawalRequest{
		Client:            ClientRecord{ClientCode: "1001"},
		SelectedInventory: []InventorySelection{{ItemID: 99999, Quantity: 1}},
		ManualItems:       []ManualItem{{Description: "   ", Quantity: 3}},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func createManualOrder(t *testing.T, orders *OrderService) *models.WithdrawalOrder {
	t.Helper()
	order, _, err := orders.CreateWithdrawal(WithdrawalRequest{
		Client:      ClientRecord{ClientCode: "555", NomeFantasia: "Adega Central"},
		ManualItems: []ManualItem{{Description: "MESA PLASTICA", Quantity: 4}},
	})
	require.NoError(t, err)
	return order
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := NewOrderService(newTestDB(t))
	order := createManualOrder(t, orders)

	_, err := orders.UpdateStatus(order.ID, "aguardando", "", "Maria")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	updated, err := orders.UpdateStatus(order.ID, " Concluida ", "entregue ok", "Maria")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, updated.Status)
	assert.Equal(t, "entregue ok", updated.StatusNote)
	assert.Equal(t, "Maria", updated.StatusChangedBy)
	require.NotNil(t, updated.StatusChangedAt)

	_, err = orders.UpdateStatus(99999, models.OrderStatusCancelled, "", "")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestDeleteOrderOnlyWhenCancelled(t *testing.T) {
	orders := NewOrderService(newTestDB(t))
	order := createManualOrder(t, orders)

	err := orders.DeleteOrder(order.ID)
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)

	_, err = orders.UpdateStatus(order.ID, models.OrderStatusCancelled, "cliente desistiu", "Ana")
	require.NoError(t, err)

	require.NoError(t, orders.DeleteOrder(order.ID))

	_, err = orders.GetOrder(order.ID)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestSafeFilenameChunk(t *testing.T) {
	assert.Equal(t, "1001", SafeFilenameChunk(" 1001 "))
	assert.Equal(t, "Bar_do_Ze", SafeFilenameChunk("Bar do Ze"))
	assert.Equal(t, "sem_codigo", SafeFilenameChunk("   "))
	assert.Equal(t, "sem_codigo", SafeFilenameChunk("///"))
}
