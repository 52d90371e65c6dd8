package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

var fileStemRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFileStem(value string) string {
	cleaned := fileStemRe.ReplaceAllString(value, "_")
	cleaned = strings.Trim(cleaned, "_")
	if len(cleaned) > 60 {
		cleaned = cleaned[:60]
	}
	if cleaned == "" {
		return "arquivo"
	}
	return cleaned
}

// DeliveryView é a entrega com as URLs dos comprovantes resolvidas
type DeliveryView struct {
	ID           int       `json:"id"`
	Description  string    `json:"description"`
	DeliveryDate string    `json:"delivery_date"`
	DeliveryTime string    `json:"delivery_time"`
	PdfOnePath   string    `json:"pdf_one_path"`
	PdfTwoPath   string    `json:"pdf_two_path"`
	PdfOneURL    string    `json:"pdf_one_url"`
	PdfTwoURL    string    `json:"pdf_two_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeliveryClientLookup é a resposta da busca de cliente por código
type DeliveryClientLookup struct {
	ClientCode   string `json:"client_code"`
	NomeFantasia string `json:"nome_fantasia"`
	Found        bool   `json:"found"`
}

// PDFUpload descreve um comprovante recebido via multipart
type PDFUpload struct {
	Filename string
	Reader   io.Reader
}

// LogisticsService mantém as entregas com comprovante e os recolhimentos
// avulsos de material
type LogisticsService struct {
	db         *gorm.DB
	uploadsDir string
}

func NewLogisticsService(db *gorm.DB, uploadsDir string) *LogisticsService {
	if strings.TrimSpace(uploadsDir) == "" {
		uploadsDir = "uploads"
	}
	return &LogisticsService{db: db, uploadsDir: uploadsDir}
}

func (ls *LogisticsService) deliveriesDir() (string, error) {
	dir := filepath.Join(ls.uploadsDir, "deliveries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (ls *LogisticsService) savePDF(upload PDFUpload, prefix, label string) (string, error) {
	if !strings.EqualFold(filepath.Ext(upload.Filename), ".pdf") {
		return "", &ValidationError{Msg: fmt.Sprintf("%s precisa ser um PDF (.pdf).", label)}
	}
	dir, err := ls.deliveriesDir()
	if err != nil {
		return "", err
	}
	stem := sanitizeFileStem(strings.TrimSuffix(filepath.Base(upload.Filename), filepath.Ext(upload.Filename)))
	targetName := fmt.Sprintf("%s_%s_%s.pdf", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""), stem)
	targetPath := filepath.Join(dir, targetName)

	out, err := os.Create(targetPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, upload.Reader); err != nil {
		os.Remove(targetPath)
		return "", err
	}
	return filepath.ToSlash(filepath.Join("deliveries", targetName)), nil
}

func (ls *LogisticsService) removeUpload(relativePath string) {
	if relativePath == "" {
		return
	}
	target := filepath.Join(ls.uploadsDir, filepath.FromSlash(relativePath))
	deliveriesDir := filepath.Join(ls.uploadsDir, "deliveries")
	rel, err := filepath.Rel(deliveriesDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Falha ao remover comprovante %s: %v", relativePath, err)
	}
}

func uploadURL(relativePath string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(relativePath), "/")
	normalized = strings.TrimPrefix(normalized, "uploads/")
	if normalized == "" {
		return ""
	}
	return "/uploads/" + normalized
}

func deliveryView(delivery *models.Delivery) DeliveryView {
	return DeliveryView{
		ID:           delivery.ID,
		Description:  delivery.Description,
		DeliveryDate: delivery.DeliveryDate.Format("2006-01-02"),
		DeliveryTime: delivery.DeliveryTime,
		PdfOnePath:   delivery.PdfOnePath,
		PdfTwoPath:   delivery.PdfTwoPath,
		PdfOneURL:    uploadURL(delivery.PdfOnePath),
		PdfTwoURL:    uploadURL(delivery.PdfTwoPath),
		CreatedAt:    delivery.CreatedAt,
	}
}

// ListDeliveries devolve as entregas, mais recentes primeiro
func (ls *LogisticsService) ListDeliveries() ([]DeliveryView, error) {
	var rows []models.Delivery
	err := ls.db.Order("delivery_date DESC, delivery_time DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	views := make([]DeliveryView, 0, len(rows))
	for i := range rows {
		views = append(views, deliveryView(&rows[i]))
	}
	return views, nil
}

// LookupDeliveryClient busca o nome fantasia do cliente na base de retiradas
func (ls *LogisticsService) LookupDeliveryClient(clientCode string) (*DeliveryClientLookup, error) {
	searchCode := CanonicalCode(clientCode)
	if searchCode == "" {
		return &DeliveryClientLookup{}, nil
	}

	var client models.CatalogClient
	err := ls.db.Select("client_code", "nome_fantasia").
		Where("client_code = ?", searchCode).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		return &DeliveryClientLookup{ClientCode: searchCode}, nil
	}
	if err != nil {
		return nil, err
	}

	fantasyName := strings.TrimSpace(client.NomeFantasia)
	code := strings.TrimSpace(client.ClientCode)
	if code == "" {
		code = searchCode
	}
	return &DeliveryClientLookup{
		ClientCode:   code,
		NomeFantasia: fantasyName,
		Found:        fantasyName != "",
	}, nil
}

// CreateDelivery valida data e horário, grava os dois comprovantes em disco
// e registra a entrega. Em caso de falha os arquivos já gravados são
// removidos.
func (ls *LogisticsService) CreateDelivery(description, dateStr, timeStr string, pdfOne, pdfTwo PDFUpload) (*DeliveryView, error) {
	parsedDate, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return nil, &ValidationError{Msg: "Data inválida. Use YYYY-MM-DD."}
	}
	deliveryTime := strings.TrimSpace(timeStr)
	if deliveryTime != "" {
		if _, err := time.Parse("15:04", deliveryTime); err != nil {
			return nil, &ValidationError{Msg: "Horário inválido. Use HH:MM."}
		}
	}

	pdfOnePath, err := ls.savePDF(pdfOne, "pdf1", "PDF 1")
	if err != nil {
		return nil, err
	}
	pdfTwoPath, err := ls.savePDF(pdfTwo, "pdf2", "PDF 2")
	if err != nil {
		ls.removeUpload(pdfOnePath)
		return nil, err
	}

	delivery := models.Delivery{
		Description:  strings.TrimSpace(description),
		DeliveryDate: parsedDate,
		DeliveryTime: deliveryTime,
		PdfOnePath:   pdfOnePath,
		PdfTwoPath:   pdfTwoPath,
	}
	if err := ls.db.Create(&delivery).Error; err != nil {
		ls.removeUpload(pdfOnePath)
		ls.removeUpload(pdfTwoPath)
		return nil, err
	}
	view := deliveryView(&delivery)
	return &view, nil
}

// DeleteDelivery remove a entrega e os comprovantes do disco
func (ls *LogisticsService) DeleteDelivery(id int) error {
	var delivery models.Delivery
	err := ls.db.First(&delivery, id).Error
	if err == gorm.ErrRecordNotFound {
		return &NotFoundError{Msg: "Entrega não encontrada"}
	}
	if err != nil {
		return err
	}
	pdfOnePath := delivery.PdfOnePath
	pdfTwoPath := delivery.PdfTwoPath
	if err := ls.db.Delete(&delivery).Error; err != nil {
		return err
	}
	ls.removeUpload(pdfOnePath)
	ls.removeUpload(pdfTwoPath)
	return nil
}

// PickupInput são os campos do registro de recolhimento avulso
type PickupInput struct {
	Description string `json:"description" binding:"required"`
	PickupDate  string `json:"pickup_date" binding:"required"`
	Material    string `json:"material" binding:"required"`
	Quantity    int    `json:"quantity"`
}

// ListPickups devolve os recolhimentos, mais recentes primeiro
func (ls *LogisticsService) ListPickups() ([]models.Pickup, error) {
	var rows []models.Pickup
	err := ls.db.Order("pickup_date DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreatePickup registra um recolhimento avulso de material
func (ls *LogisticsService) CreatePickup(input PickupInput) (*models.Pickup, error) {
	parsedDate, err := time.Parse("2006-01-02", strings.TrimSpace(input.PickupDate))
	if err != nil {
		return nil, &ValidationError{Msg: "Data inválida. Use YYYY-MM-DD."}
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}
	pickup := models.Pickup{
		Description: strings.TrimSpace(input.Description),
		PickupDate:  parsedDate,
		Material:    strings.TrimSpace(input.Material),
		Quantity:    quantity,
	}
	if err := ls.db.Create(&pickup).Error; err != nil {
		return nil, err
	}
	return &pickup, nil
}

// DeletePickup remove um recolhimento
func (ls *LogisticsService) DeletePickup(id int) error {
	var pickup models.Pickup
	err := ls.db.First(&pickup, id).Error
	if err == gorm.ErrRecordNotFound {
		return &NotFoundError{Msg: "Retirada não encontrada"}
	}
	if err != nil {
		return err
	}
	return ls.db.Delete(&pickup).Error
}
