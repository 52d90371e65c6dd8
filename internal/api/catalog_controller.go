package api

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// CatalogController expõe a base de retiradas: ingestão dos CSVs,
// consulta de cliente e emissão das ordens
type CatalogController struct {
	catalog     *services.CatalogService
	orders      *services.OrderService
	maxUploadMB int64
}

func NewCatalogController(catalog *services.CatalogService, orders *services.OrderService, maxUploadMB int64) *CatalogController {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &CatalogController{catalog: catalog, orders: orders, maxUploadMB: maxUploadMB}
}

func (cc *CatalogController) readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	limit := cc.maxUploadMB * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &services.ValidationError{Msg: fmt.Sprintf("Arquivo excede o limite de %d MB.", cc.maxUploadMB)}
	}
	return data, nil
}

// Status informa se há base carregada e os números do último lote
// GET /api/v1/pickup-catalog/status
func (cc *CatalogController) Status(c *gin.Context) {
	status, err := cc.catalog.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// UploadCSV recebe os arquivos 01.20.11 e 02.02.20 e grava um lote novo
// POST /api/v1/pickup-catalog/upload-csv
func (cc *CatalogController) UploadCSV(c *gin.Context) {
	clientsFile, err := c.FormFile("clients_csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie os dois arquivos CSV (01.20.11 e 02.02.20)."})
		return
	}
	inventoryFile, err := c.FormFile("inventory_csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie os dois arquivos CSV (01.20.11 e 02.02.20)."})
		return
	}

	clientsData, err := cc.readUpload(clientsFile)
	if err != nil {
		respondError(c, err)
		return
	}
	inventoryData, err := cc.readUpload(inventoryFile)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(clientsData) == 0 || len(inventoryData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envie os dois arquivos CSV (01.20.11 e 02.02.20)."})
		return
	}

	stats, err := cc.catalog.Ingest(clientsData, clientsFile.Filename, inventoryData, inventoryFile.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Dados gravados com sucesso.",
		"stats":   stats,
	})
}

// GetClient busca o cliente pelo código e devolve o inventário em aberto
// GET /api/v1/pickup-catalog/client/:code
func (cc *CatalogController) GetClient(c *gin.Context) {
	lookup, err := cc.catalog.FindClient(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

// ListOrders devolve o histórico de ordens de retirada
// GET /api/v1/pickup-catalog/orders
func (cc *CatalogController) ListOrders(c *gin.Context) {
	orders, err := cc.orders.ListOrders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder devolve uma ordem com os itens
// GET /api/v1/pickup-catalog/orders/:id
func (cc *CatalogController) GetOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	order, err := cc.orders.GetOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateOrderPDF grava a ordem e devolve o PDF em duas vias
// POST /api/v1/pickup-catalog/orders/pdf
func (cc *CatalogController) CreateOrderPDF(c *gin.Context) {
	var req services.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}

	order, doc, err := cc.orders.CreateWithdrawal(req)
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := services.BuildWithdrawalPDF(doc)
	if err != nil {
		respondError(c, err)
		return
	}

	chunk := services.SafeFilenameChunk(doc.Client.ClientCode)
	if chunk == "" {
		chunk = "sem_codigo"
	}
	filename := fmt.Sprintf("ordem_retirada_%s_%s.pdf", chunk, time.Now().Format("20060102_1504"))
	log.Printf("📄 Ordem %s emitida para o cliente %s", order.OrderNumber, doc.Client.ClientCode)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

type OrderStatusRequest struct {
	Status    string `json:"status" binding:"required"`
	Note      string `json:"note"`
	ChangedBy string `json:"changed_by"`
}

// UpdateOrderStatus muda uma ordem entre pendente, concluída e cancelada
// PATCH /api/v1/pickup-catalog/orders/:id/status
func (cc *CatalogController) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		if user := currentUser(c); user != nil {
			changedBy = user.Name
		}
	}
	order, err := cc.orders.UpdateStatus(id, req.Status, req.Note, changedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder remove uma ordem cancelada
// DELETE /api/v1/pickup-catalog/orders/:id
func (cc *CatalogController) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := cc.orders.DeleteOrder(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
