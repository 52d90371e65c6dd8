package services

import (
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// EquipmentService é o cadastro próprio de equipamentos da revenda,
// paralelo ao inventário 02.02.20 importado. Os dois se cruzam pelos
// tokens de RG/etiqueta.
type EquipmentService struct {
	db      *gorm.DB
	catalog *CatalogService
}

func NewEquipmentService(db *gorm.DB) *EquipmentService {
	return &EquipmentService{db: db}
}

// SetCatalogService injeta o catálogo usado no cruzamento com o 02.02.20
func (es *EquipmentService) SetCatalogService(catalog *CatalogService) {
	es.catalog = catalog
}

// Categorias e status do cadastro de equipamentos
const (
	EquipmentStatusNovo       = "novo"
	EquipmentStatusDisponivel = "disponivel"
	EquipmentStatusRecap      = "recap"
	EquipmentStatusSucata     = "sucata"
	EquipmentStatusAlocado    = "alocado"
)

var equipmentCategoryLabels = map[string]string{
	"refrigerador":  "Refrigeradores",
	"caixa_termica": "Caixa térmica",
	"jogo_mesa":     "Jogos de mesa",
	"outro":         "Outros",
}

var equipmentCategoryAliases = map[string]string{
	"refrigerador":    "refrigerador",
	"refrigeradores":  "refrigerador",
	"geladeira":       "refrigerador",
	"geladeiras":      "refrigerador",
	"frigobar":        "refrigerador",
	"frigorifico":     "refrigerador",
	"caixa termica":   "caixa_termica",
	"caixas termicas": "caixa_termica",
	"caixa termicas":  "caixa_termica",
	"jogo de mesa":    "jogo_mesa",
	"jogos de mesa":   "jogo_mesa",
	"jogo mesa":       "jogo_mesa",
	"jogos mesa":      "jogo_mesa",
	"outro":           "outro",
	"outros":          "outro",
}

var validEquipmentStatuses = map[string]bool{
	EquipmentStatusNovo:       true,
	EquipmentStatusDisponivel: true,
	EquipmentStatusRecap:      true,
	EquipmentStatusSucata:     true,
	EquipmentStatusAlocado:    true,
}

var voltageAliases = map[string]string{
	"":              "",
	"110":           "110v",
	"110v":          "110v",
	"127":           "127v",
	"127v":          "127v",
	"220":           "220v",
	"220v":          "220v",
	"bivolt":        "bivolt",
	"bi volt":       "bivolt",
	"nao informado": "nao_informado",
	"nao informada": "nao_informado",
	"nao se aplica": "nao_informado",
	"n/a":           "nao_informado",
}

// NormalizeCategory resolve um alias de categoria do cadastro
func NormalizeCategory(value string) (string, error) {
	lookup := NormalizeLookupText(value)
	if resolved, ok := equipmentCategoryAliases[lookup]; ok {
		return resolved, nil
	}
	return "", &ValidationError{Msg: "Categoria inválida."}
}

// NormalizeEquipmentStatus valida um status do cadastro
func NormalizeEquipmentStatus(value string) (string, error) {
	normalized := NormalizeLookupText(value)
	if validEquipmentStatuses[normalized] {
		return normalized, nil
	}
	return "", &ValidationError{Msg: "Status inválido."}
}

// NormalizeVoltage resolve um alias de voltagem ("110" -> "110v" etc.)
func NormalizeVoltage(value string) (string, error) {
	lookup := NormalizeLookupText(value)
	if resolved, ok := voltageAliases[lookup]; ok {
		return resolved, nil
	}
	return "", &ValidationError{Msg: "Voltagem inválida."}
}

func optionalCode(value string) *string {
	text := NormalizeSpaces(value)
	if text == "" {
		return nil
	}
	upper := strings.ToUpper(text)
	return &upper
}

func optionalText(value string) *string {
	text := NormalizeSpaces(value)
	if text == "" {
		return nil
	}
	return &text
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// EnsureUniqueCodes garante que RG e etiqueta não colidem com outro
// registro. currentID exclui o próprio registro em atualizações.
func (es *EquipmentService) EnsureUniqueCodes(rgCode, tagCode *string, currentID int) error {
	if rgCode != nil {
		query := es.db.Model(&models.Equipment{}).Where("rg_code = ?", *rgCode)
		if currentID > 0 {
			query = query.Where("id <> ?", currentID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{Msg: "RG já cadastrado."}
		}
	}
	if tagCode != nil {
		query := es.db.Model(&models.Equipment{}).Where("tag_code = ?", *tagCode)
		if currentID > 0 {
			query = query.Where("id <> ?", currentID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{Msg: "Etiqueta já cadastrada."}
		}
	}
	return nil
}

// EquipmentFilter são os filtros da listagem geral
type EquipmentFilter struct {
	Category   string
	Status     string
	ClientName string
	Query      string
	Limit      int
	Offset     int
}

func likePattern(value string) string {
	return "%" + strings.ToLower(NormalizeSpaces(value)) + "%"
}

// List busca equipamentos com filtros opcionais, mais recentes primeiro
func (es *EquipmentService) List(filter EquipmentFilter) ([]models.Equipment, error) {
	query := es.db.Model(&models.Equipment{})

	if filter.Category != "" {
		category, err := NormalizeCategory(filter.Category)
		if err != nil {
			return nil, err
		}
		query = query.Where("category = ?", category)
	}
	if filter.Status != "" {
		status, err := NormalizeEquipmentStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		query = query.Where("status = ?", status)
	}
	if filter.ClientName != "" {
		query = query.Where("LOWER(COALESCE(client_name, '')) LIKE ?", likePattern(filter.ClientName))
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where(
			`LOWER(model_name) LIKE ? OR LOWER(COALESCE(brand, '')) LIKE ? OR LOWER(COALESCE(voltage, '')) LIKE ?
				OR LOWER(COALESCE(rg_code, '')) LIKE ? OR LOWER(COALESCE(tag_code, '')) LIKE ?
				OR LOWER(COALESCE(client_name, '')) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?`,
			pattern, pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}

	limit := filter.Limit
	if limit < 1 || limit > 400 {
		limit = 120
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []models.Equipment
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// EquipmentStatusCounts agrupa contagens por status
type EquipmentStatusCounts struct {
	Total      int `json:"total"`
	Novo       int `json:"novo"`
	Disponivel int `json:"disponivel"`
	Recap      int `json:"recap"`
	Sucata     int `json:"sucata"`
	Alocado    int `json:"alocado"`
}

func (c *EquipmentStatusCounts) add(status string) {
	c.Total++
	switch status {
	case EquipmentStatusNovo:
		c.Novo++
	case EquipmentStatusDisponivel:
		c.Disponivel++
	case EquipmentStatusRecap:
		c.Recap++
	case EquipmentStatusSucata:
		c.Sucata++
	case EquipmentStatusAlocado:
		c.Alocado++
	}
}

// EquipmentCategorySummary são as contagens de uma categoria
type EquipmentCategorySummary struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	EquipmentStatusCounts
}

// EquipmentClientSummary conta os alocados por cliente
type EquipmentClientSummary struct {
	ClientName string `json:"client_name"`
	Total      int    `json:"total"`
}

// EquipmentSummary é o painel geral do cadastro
type EquipmentSummary struct {
	EquipmentStatusCounts
	Categories []EquipmentCategorySummary `json:"categories"`
	Clients    []EquipmentClientSummary   `json:"clients"`
}

// Summary agrega o cadastro inteiro por status, categoria e cliente
func (es *EquipmentService) Summary() (*EquipmentSummary, error) {
	var rows []models.Equipment
	if err := es.db.Select("category", "status", "client_name").Find(&rows).Error; err != nil {
		return nil, err
	}

	summary := &EquipmentSummary{}
	byCategory := make(map[string]*EquipmentStatusCounts, len(equipmentCategoryLabels))
	for category := range equipmentCategoryLabels {
		byCategory[category] = &EquipmentStatusCounts{}
	}
	clientCounts := make(map[string]int)

	for _, row := range rows {
		category := row.Category
		if _, ok := equipmentCategoryLabels[category]; !ok {
			category = "outro"
		}
		status := row.Status
		if !validEquipmentStatuses[status] {
			status = EquipmentStatusNovo
		}
		summary.add(status)
		byCategory[category].add(status)
		if status == EquipmentStatusAlocado {
			if client := NormalizeSpaces(strVal(row.ClientName)); client != "" {
				clientCounts[client]++
			}
		}
	}

	categories := make([]EquipmentCategorySummary, 0, len(byCategory))
	for category, counts := range byCategory {
		categories = append(categories, EquipmentCategorySummary{
			Category:              category,
			Label:                 equipmentCategoryLabels[category],
			EquipmentStatusCounts: *counts,
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	clients := make([]EquipmentClientSummary, 0, len(clientCounts))
	for client, total := range clientCounts {
		clients = append(clients, EquipmentClientSummary{ClientName: client, Total: total})
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Total != clients[j].Total {
			return clients[i].Total > clients[j].Total
		}
		return strings.ToLower(clients[i].ClientName) < strings.ToLower(clients[j].ClientName)
	})

	summary.Categories = categories
	summary.Clients = clients
	return summary, nil
}

// EquipmentInput são os dados de criação/edição de um equipamento.
// Ponteiros nulos em Update significam "não alterar".
type EquipmentInput struct {
	Category   *string `json:"category"`
	ModelName  *string `json:"model_name"`
	Brand      *string `json:"brand"`
	Quantity   *int    `json:"quantity"`
	Voltage    *string `json:"voltage"`
	RGCode     *string `json:"rg_code"`
	TagCode    *string `json:"tag_code"`
	Status     *string `json:"status"`
	ClientName *string `json:"client_name"`
	Notes      *string `json:"notes"`
}

func inputStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Create cadastra um equipamento novo. Refrigeradores exigem voltagem e
// RG e não podem entrar como novo/disponível se o RG já consta alocado
// no 02.02.20.
func (es *EquipmentService) Create(input EquipmentInput) (*models.Equipment, error) {
	category, err := NormalizeCategory(inputStr(input.Category))
	if err != nil {
		return nil, err
	}
	isRefrigerator := category == "refrigerador"

	status := EquipmentStatusNovo
	if isRefrigerator && input.Status != nil {
		status, err = NormalizeEquipmentStatus(*input.Status)
		if err != nil {
			return nil, err
		}
	}

	modelName := NormalizeSpaces(inputStr(input.ModelName))
	brand := NormalizeSpaces(inputStr(input.Brand))
	if modelName == "" {
		return nil, &ValidationError{Msg: "Modelo é obrigatório."}
	}
	if brand == "" {
		return nil, &ValidationError{Msg: "Marca é obrigatória."}
	}

	quantity := 1
	if !isRefrigerator {
		if input.Quantity == nil {
			return nil, &ValidationError{Msg: "Quantidade é obrigatória para esta categoria."}
		}
		if *input.Quantity < 1 {
			return nil, &ValidationError{Msg: "Quantidade deve ser maior que zero."}
		}
		quantity = *input.Quantity
	}

	voltage := ""
	if isRefrigerator {
		voltage, err = NormalizeVoltage(inputStr(input.Voltage))
		if err != nil {
			return nil, err
		}
		if voltage == "" {
			return nil, &ValidationError{Msg: "Voltagem é obrigatória para refrigerador."}
		}
	}

	rgCode := optionalCode(inputStr(input.RGCode))
	tagCode := optionalCode(inputStr(input.TagCode))
	if isRefrigerator && rgCode == nil {
		return nil, &ValidationError{Msg: "RG é obrigatório para refrigerador."}
	}

	var clientName *string
	if isRefrigerator {
		clientName = optionalText(inputStr(input.ClientName))
	}
	if status == EquipmentStatusAlocado && clientName == nil {
		return nil, &ValidationError{Msg: "Cliente é obrigatório quando o equipamento está alocado."}
	}
	if status != EquipmentStatusAlocado {
		clientName = nil
	}

	if err := es.EnsureUniqueCodes(rgCode, tagCode, 0); err != nil {
		return nil, err
	}
	if isRefrigerator && (status == EquipmentStatusNovo || status == EquipmentStatusDisponivel) {
		allocated, err := es.IsAllocatedInLedger(strVal(rgCode), strVal(tagCode), nil)
		if err != nil {
			return nil, err
		}
		if allocated {
			return nil, &ConflictError{
				Msg: "Equipamento já consta alocado na base 02.02.20 para o RG ou etiqueta informados. Não é permitido cadastrar como disponível.",
			}
		}
	}

	row := models.Equipment{
		Category:   category,
		ModelName:  modelName,
		Brand:      brand,
		Quantity:   quantity,
		Voltage:    voltage,
		RGCode:     rgCode,
		TagCode:    tagCode,
		Status:     status,
		ClientName: clientName,
		Notes:      optionalText(inputStr(input.Notes)),
	}
	if err := es.db.Create(&row).Error; err != nil {
		return nil, &ConflictError{Msg: "RG ou etiqueta já cadastrados."}
	}
	return &row, nil
}

// GetByID busca um equipamento pelo id
func (es *EquipmentService) GetByID(id int) (*models.Equipment, error) {
	var row models.Equipment
	err := es.db.First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Msg: "Equipamento não encontrado."}
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update aplica uma edição parcial. A revalidação contra o 02.02.20 só
// acontece quando RG, etiqueta ou status mudaram.
func (es *EquipmentService) Update(id int, input EquipmentInput) (*models.Equipment, error) {
	row, err := es.GetByID(id)
	if err != nil {
		return nil, err
	}

	nextCategory := row.Category
	if input.Category != nil {
		nextCategory, err = NormalizeCategory(*input.Category)
		if err != nil {
			return nil, err
		}
	}
	isRefrigerator := nextCategory == "refrigerador"

	nextModelName := row.ModelName
	if input.ModelName != nil {
		nextModelName = NormalizeSpaces(*input.ModelName)
	}
	nextBrand := row.Brand
	if input.Brand != nil {
		nextBrand = NormalizeSpaces(*input.Brand)
	}

	nextQuantity := row.Quantity
	if nextQuantity < 1 {
		nextQuantity = 1
	}
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, &ValidationError{Msg: "Quantidade deve ser maior que zero."}
		}
		nextQuantity = *input.Quantity
	}

	nextVoltage := row.Voltage
	if input.Voltage != nil && isRefrigerator {
		nextVoltage, err = NormalizeVoltage(*input.Voltage)
		if err != nil {
			return nil, err
		}
	}

	nextRGCode := row.RGCode
	if input.RGCode != nil {
		nextRGCode = optionalCode(*input.RGCode)
	}
	nextTagCode := row.TagCode
	if input.TagCode != nil {
		nextTagCode = optionalCode(*input.TagCode)
	}

	nextStatus := EquipmentStatusNovo
	if isRefrigerator {
		nextStatus = row.Status
		if input.Status != nil {
			nextStatus, err = NormalizeEquipmentStatus(*input.Status)
			if err != nil {
				return nil, err
			}
		}
	}

	var nextClientName *string
	if isRefrigerator {
		nextClientName = row.ClientName
		if input.ClientName != nil {
			nextClientName = optionalText(*input.ClientName)
		}
	}

	nextNotes := row.Notes
	if input.Notes != nil {
		nextNotes = optionalText(*input.Notes)
	}

	if nextModelName == "" {
		return nil, &ValidationError{Msg: "Modelo é obrigatório."}
	}
	if nextBrand == "" {
		return nil, &ValidationError{Msg: "Marca é obrigatória."}
	}
	if isRefrigerator && nextVoltage == "" {
		return nil, &ValidationError{Msg: "Voltagem é obrigatória para refrigerador."}
	}
	if !isRefrigerator {
		nextVoltage = ""
	}
	if isRefrigerator && nextRGCode == nil {
		return nil, &ValidationError{Msg: "RG é obrigatório para refrigerador."}
	}
	if isRefrigerator && nextStatus == EquipmentStatusAlocado && nextClientName == nil {
		return nil, &ValidationError{Msg: "Cliente é obrigatório quando o equipamento está alocado."}
	}
	if nextStatus != EquipmentStatusAlocado {
		nextClientName = nil
	}

	if err := es.EnsureUniqueCodes(nextRGCode, nextTagCode, row.ID); err != nil {
		return nil, err
	}

	shouldValidateLedger := isRefrigerator &&
		(nextStatus == EquipmentStatusNovo || nextStatus == EquipmentStatusDisponivel) &&
		(strVal(row.RGCode) != strVal(nextRGCode) ||
			strVal(row.TagCode) != strVal(nextTagCode) ||
			NormalizeLookupText(row.Status) != NormalizeLookupText(nextStatus))
	if shouldValidateLedger {
		allocated, err := es.IsAllocatedInLedger(strVal(nextRGCode), strVal(nextTagCode), nil)
		if err != nil {
			return nil, err
		}
		if allocated {
			return nil, &ConflictError{
				Msg: "Equipamento já consta alocado na base 02.02.20 para o RG ou etiqueta informados. Não é permitido salvar como disponível.",
			}
		}
	}

	if isRefrigerator {
		nextQuantity = 1
	}

	row.Category = nextCategory
	row.ModelName = nextModelName
	row.Brand = nextBrand
	row.Quantity = nextQuantity
	row.Voltage = nextVoltage
	row.RGCode = nextRGCode
	row.TagCode = nextTagCode
	row.Status = nextStatus
	row.ClientName = nextClientName
	row.Notes = nextNotes

	if err := es.db.Save(row).Error; err != nil {
		return nil, &ConflictError{Msg: "RG ou etiqueta já cadastrados."}
	}
	return row, nil
}

// Delete remove um equipamento do cadastro
func (es *EquipmentService) Delete(id int) error {
	row, err := es.GetByID(id)
	if err != nil {
		return err
	}
	return es.db.Delete(row).Error
}
