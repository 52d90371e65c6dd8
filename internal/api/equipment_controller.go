package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// EquipmentController cobre o cadastro próprio de equipamentos e as
// visões cruzadas com a base 02.02.20
type EquipmentController struct {
	equipments  *services.EquipmentService
	maxUploadMB int64
}

func NewEquipmentController(equipments *services.EquipmentService, maxUploadMB int64) *EquipmentController {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &EquipmentController{equipments: equipments, maxUploadMB: maxUploadMB}
}

func queryInt(c *gin.Context, name string, fallback, min, max int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	if value < min {
		return min
	}
	if max > 0 && value > max {
		return max
	}
	return value
}

// List filtra o cadastro por categoria, status, cliente e texto livre
// GET /api/v1/equipments
func (ec *EquipmentController) List(c *gin.Context) {
	filter := services.EquipmentFilter{
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		ClientName: c.Query("client_name"),
		Query:      c.Query("q"),
		Limit:      queryInt(c, "limit", 120, 1, 400),
		Offset:     queryInt(c, "offset", 0, 0, 0),
	}
	rows, err := ec.equipments.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Summary agrega o cadastro por categoria, status e cliente
// GET /api/v1/equipments/summary
func (ec *EquipmentController) Summary(c *gin.Context) {
	summary, err := ec.equipments.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RefrigeratorsOverview monta o painel de comodatos: novos no cadastro
// versus alocados na base 02.02.20
// GET /api/v1/equipments/refrigerators/overview
func (ec *EquipmentController) RefrigeratorsOverview(c *gin.Context) {
	novosLimit := queryInt(c, "novos_limit", 240, 1, 800)
	alocadosLimit := queryInt(c, "alocados_limit", 240, 1, 800)
	overview, err := ec.equipments.RefrigeratorsOverview(novosLimit, alocadosLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ListNewRefrigerators lista os refrigeradores com status novo
// GET /api/v1/equipments/refrigerators/new
func (ec *EquipmentController) ListNewRefrigerators(c *gin.Context) {
	list, err := ec.equipments.ListNewRefrigerators(
		c.Query("q"),
		c.DefaultQuery("sort", "newest"),
		queryInt(c, "limit", 50, 1, 50),
		queryInt(c, "offset", 0, 0, 0),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAvailableForComodato lista refrigeradores livres para comodato
// GET /api/v1/equipments/refrigerators/available-for-comodato
func (ec *EquipmentController) ListAvailableForComodato(c *gin.Context) {
	items, err := ec.equipments.ListAvailableForComodato(
		c.Query("q"),
		queryInt(c, "limit", 200, 1, 1000),
		queryInt(c, "offset", 0, 0, 0),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListNonAllocated lista os refrigeradores fora da base 02.02.20
// GET /api/v1/equipments/refrigerators/non-allocated
func (ec *EquipmentController) ListNonAllocated(c *gin.Context) {
	list, err := ec.equipments.ListNonAllocated(
		c.Query("q"),
		c.DefaultQuery("status", "todos"),
		c.DefaultQuery("sort", "newest"),
		queryInt(c, "limit", 25, 1, 50),
		queryInt(c, "offset", 0, 0, 0),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SyncAllocationStatus marca como alocado quem aparece na base 02.02.20
// POST /api/v1/equipments/refrigerators/sync-allocation-status
func (ec *EquipmentController) SyncAllocationStatus(c *gin.Context) {
	result, err := ec.equipments.SyncAllocationStatus()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// InventoryMaterialMonthOptions lista os meses presentes na base
// GET /api/v1/equipments/inventory-materials/month-options
func (ec *EquipmentController) InventoryMaterialMonthOptions(c *gin.Context) {
	options, err := ec.equipments.InventoryMaterialMonthOptions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// ListInventoryMaterials lista as linhas em aberto da base com filtros
// GET /api/v1/equipments/inventory-materials
func (ec *EquipmentController) ListInventoryMaterials(c *gin.Context) {
	filter := services.InventoryMaterialFilter{
		Group:    c.DefaultQuery("group", "todos"),
		Query:    c.Query("q"),
		Year:     c.Query("year"),
		Month:    c.Query("month"),
		ItemType: c.Query("item_type"),
		Sort:     c.DefaultQuery("sort", "newest"),
		Limit:    queryInt(c, "limit", 50, 1, 50),
		Offset:   queryInt(c, "offset", 0, 0, 0),
	}
	list, err := ec.equipments.ListInventoryMaterials(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AllocationLookup cruza RG e etiqueta entre o cadastro e a base
// GET /api/v1/equipments/allocations/lookup
func (ec *EquipmentController) AllocationLookup(c *gin.Context) {
	result, err := ec.equipments.AllocationLookup(c.Query("rg_code"), c.Query("tag_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportCSV importa refrigeradores em lote a partir de um CSV
// POST /api/v1/equipments/refrigerators/import-csv
func (ec *EquipmentController) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie o arquivo CSV."})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	limit := ec.maxUploadMB * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respondError(c, err)
		return
	}
	if int64(len(data)) > limit {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Arquivo excede o limite de upload."})
		return
	}

	result, err := ec.equipments.ImportRefrigeratorsCSV(data, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Create cadastra um equipamento
// POST /api/v1/equipments
func (ec *EquipmentController) Create(c *gin.Context) {
	var input services.EquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	equipment, err := ec.equipments.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, equipment)
}

// Update altera um equipamento (campos ausentes ficam como estão)
// PUT /api/v1/equipments/:id
func (ec *EquipmentController) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input services.EquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	equipment, err := ec.equipments.Update(id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

// Delete remove um equipamento do cadastro
// DELETE /api/v1/equipments/:id
func (ec *EquipmentController) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ec.equipments.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
