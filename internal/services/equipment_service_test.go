package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func fridgeInput(rg string) EquipmentInput {
	return EquipmentInput{
		Category:  strPtr("refrigerador"),
		ModelName: strPtr("Metalfrio VN44"),
		Brand:     strPtr("Metalfrio"),
		Voltage:   strPtr("220"),
		RGCode:    strPtr(rg),
	}
}

func TestEquipmentCreateValidation(t *testing.T) {
	es := NewEquipmentService(newTestDB(t))
	var vErr *ValidationError

	_, err := es.Create(EquipmentInput{Category: strPtr("bicicleta")})
	require.ErrorAs(t, err, &vErr)

	// Categoria fora de refrigerador exige quantidade
	_, err = es.Create(EquipmentInput{
		Category:  strPtr("caixa termica"),
		ModelName: strPtr("Caixa 60L"),
		Brand:     strPtr("Coleman"),
	})
	require.ErrorAs(t, err, &vErr)

	input := fridgeInput("rg-001")
	input.Voltage = nil
	_, err = es.Create(input)
	require.ErrorAs(t, err, &vErr)

	input = fridgeInput("")
	_, err = es.Create(input)
	require.ErrorAs(t, err, &vErr)

	row, err := es.Create(fridgeInput("rg-001"))
	require.NoError(t, err)
	assert.Equal(t, EquipmentStatusNovo, row.Status)
	assert.Equal(t, 1, row.Quantity)
	assert.Equal(t, "220v", row.Voltage)
	require.NotNil(t, row.RGCode)
	assert.Equal(t, "RG-001", *row.RGCode, "código guardado em maiúsculas")
}

func TestEquipmentUniqueCodes(t *testing.T) {
	es := NewEquipmentService(newTestDB(t))

	first, err := es.Create(fridgeInput("RG-001"))
	require.NoError(t, err)

	_, err = es.Create(fridgeInput("rg-001"))
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)

	other := fridgeInput("RG-002")
	other.TagCode = strPtr("TAG-7")
	_, err = es.Create(other)
	require.NoError(t, err)

	// Atualização não pode roubar a etiqueta de outro registro
	_, err = es.Update(first.ID, EquipmentInput{TagCode: strPtr("tag-7")})
	require.ErrorAs(t, err, &cErr)
}

func TestEquipmentLedgerGuardAndSync(t *testing.T) {
	db := newTestDB(t)
	es := NewEquipmentService(db)
	catalog := NewCatalogService(db)

	// Sem lote carregado o cadastro é livre
	inField, err := es.Create(fridgeInput("RG123"))
	require.NoError(t, err)

	_, err = catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	// RG em aberto no 02.02.20 não entra como disponível
	blocked := fridgeInput("RG-999")
	blocked.RGCode = strPtr("123")
	_, err = es.Create(blocked)
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)

	// Mas pode entrar já marcado como alocado
	allocated := fridgeInput("RG-888")
	allocated.RGCode = strPtr("rg 123 b")
	allocated.Status = strPtr("alocado")
	allocated.ClientName = strPtr("Bar do Zé")
	_, err = es.Create(allocated)
	require.NoError(t, err)

	free, err := es.Create(fridgeInput("RG-555"))
	require.NoError(t, err)

	result, err := es.SyncAllocationStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, result.ScannedCount)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, []int{inField.ID}, result.UpdatedIDs)

	updated, err := es.GetByID(inField.ID)
	require.NoError(t, err)
	assert.Equal(t, EquipmentStatusAlocado, updated.Status)

	// Segunda rodada não muda nada
	result, err = es.SyncAllocationStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScannedCount)
	assert.Equal(t, 0, result.UpdatedCount)

	stillFree, err := es.GetByID(free.ID)
	require.NoError(t, err)
	assert.Equal(t, EquipmentStatusNovo, stillFree.Status)
}

func TestSyncAllocationStatusRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	es := NewEquipmentService(db)
	catalog := NewCatalogService(db)

	// Dois refrigeradores que casam com o RG123 em aberto no lote
	first, err := es.Create(fridgeInput("RG123"))
	require.NoError(t, err)
	input := fridgeInput("RG-777")
	input.RGCode = strPtr("123")
	second, err := es.Create(input)
	require.NoError(t, err)

	_, err = catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	// A segunda virada de status falha no meio da varredura
	updates := 0
	require.NoError(t, db.Callback().Update().Before("gorm:update").
		Register("equipments_fail_second", func(tx *gorm.DB) {
			if tx.Statement.Table != "equipments" {
				return
			}
			updates++
			if updates == 2 {
				tx.AddError(errors.New("banco indisponível"))
			}
		}))

	_, err = es.SyncAllocationStatus()
	require.Error(t, err)

	// Nenhuma linha pode ficar virada pela metade
	row, err := es.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, EquipmentStatusNovo, row.Status)
	row, err = es.GetByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, EquipmentStatusNovo, row.Status)

	require.NoError(t, db.Callback().Update().Remove("equipments_fail_second"))

	result, err := es.SyncAllocationStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedCount)
}

func TestAllocationLookupByTag(t *testing.T) {
	db := newTestDB(t)
	es := NewEquipmentService(db)
	catalog := NewCatalogService(db)

	_, err := catalog.Ingest(clientsCSVFixture, "clientes.csv", inventoryCSVFixture, "base.csv")
	require.NoError(t, err)

	registered := fridgeInput("RG123")
	registered.TagCode = strPtr("etq-9")
	registered.Status = strPtr("alocado")
	registered.ClientName = strPtr("Bar do Zé")
	_, err = es.Create(registered)
	require.NoError(t, err)

	_, err = es.AllocationLookup("", "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	// Só com a etiqueta o RG é resolvido pelo cadastro
	result, err := es.AllocationLookup("", "etq-9")
	require.NoError(t, err)
	assert.Equal(t, "RG123", result.RGCode)
	assert.Equal(t, "ETQ-9", result.TagCode)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "1001", result.Items[0].ClientCode)
	assert.Equal(t, "Bar do Zé", result.Items[0].NomeFantasia)
	assert.Equal(t, "REFRIGERADOR VERTICAL 410L", result.Items[0].ModelName)

	// RG desconhecido responde vazio
	result, err = es.AllocationLookup("RG777", "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Items)
}

func TestEquipmentSummary(t *testing.T) {
	es := NewEquipmentService(newTestDB(t))

	_, err := es.Create(fridgeInput("RG-010"))
	require.NoError(t, err)

	cooler := EquipmentInput{
		Category:  strPtr("caixa termica"),
		ModelName: strPtr("Caixa 60L"),
		Brand:     strPtr("Coleman"),
		Quantity:  intPtr(4),
	}
	_, err = es.Create(cooler)
	require.NoError(t, err)

	allocated := fridgeInput("RG-011")
	allocated.Status = strPtr("alocado")
	allocated.ClientName = strPtr("Adega Central")
	_, err = es.Create(allocated)
	require.NoError(t, err)

	summary, err := es.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Novo)
	assert.Equal(t, 1, summary.Alocado)
	require.Len(t, summary.Clients, 1)
	assert.Equal(t, "Adega Central", summary.Clients[0].ClientName)

	require.Len(t, summary.Categories, 4)
	assert.Equal(t, "caixa_termica", summary.Categories[0].Category)
	assert.Equal(t, 1, summary.Categories[0].Total)
}

func TestEquipmentDelete(t *testing.T) {
	es := NewEquipmentService(newTestDB(t))

	row, err := es.Create(fridgeInput("RG-020"))
	require.NoError(t, err)
	require.NoError(t, es.Delete(row.ID))

	var nfErr *NotFoundError
	_, err = es.GetByID(row.ID)
	require.ErrorAs(t, err, &nfErr)

	err = es.Delete(row.ID)
	require.ErrorAs(t, err, &nfErr)
}
