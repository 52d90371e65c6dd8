package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// LogisticsController cobre entregas com comprovante e recolhimentos
// avulsos de material
type LogisticsController struct {
	logistics *services.LogisticsService
}

func NewLogisticsController(logistics *services.LogisticsService) *LogisticsController {
	return &LogisticsController{logistics: logistics}
}

// ListDeliveries devolve as entregas registradas
// GET /api/v1/deliveries
func (lc *LogisticsController) ListDeliveries(c *gin.Context) {
	deliveries, err := lc.logistics.ListDeliveries()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

// LookupDeliveryClient busca o nome fantasia na base de retiradas
// GET /api/v1/deliveries/client/:code
func (lc *LogisticsController) LookupDeliveryClient(c *gin.Context) {
	lookup, err := lc.logistics.LookupDeliveryClient(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

// CreateDelivery registra uma entrega com os dois comprovantes em PDF
// POST /api/v1/deliveries
func (lc *LogisticsController) CreateDelivery(c *gin.Context) {
	description := c.PostForm("description")
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe a descrição da entrega."})
		return
	}

	pdfOneHeader, err := c.FormFile("pdf_one")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie os dois comprovantes em PDF."})
		return
	}
	pdfTwoHeader, err := c.FormFile("pdf_two")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie os dois comprovantes em PDF."})
		return
	}

	pdfOneFile, err := pdfOneHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer pdfOneFile.Close()
	pdfTwoFile, err := pdfTwoHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer pdfTwoFile.Close()

	delivery, err := lc.logistics.CreateDelivery(
		description,
		c.PostForm("delivery_date"),
		c.PostForm("delivery_time"),
		services.PDFUpload{Filename: pdfOneHeader.Filename, Reader: pdfOneFile},
		services.PDFUpload{Filename: pdfTwoHeader.Filename, Reader: pdfTwoFile},
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// DeleteDelivery remove a entrega e os comprovantes
// DELETE /api/v1/deliveries/:id
func (lc *LogisticsController) DeleteDelivery(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := lc.logistics.DeleteDelivery(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPickups devolve os recolhimentos avulsos
// GET /api/v1/pickups
func (lc *LogisticsController) ListPickups(c *gin.Context) {
	pickups, err := lc.logistics.ListPickups()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickups)
}

// CreatePickup registra um recolhimento avulso
// POST /api/v1/pickups
func (lc *LogisticsController) CreatePickup(c *gin.Context) {
	var input services.PickupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	pickup, err := lc.logistics.CreatePickup(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pickup)
}

// DeletePickup remove um recolhimento
// DELETE /api/v1/pickups/:id
func (lc *LogisticsController) DeletePickup(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := lc.logistics.DeletePickup(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
