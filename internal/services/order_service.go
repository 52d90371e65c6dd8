package services

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// OrderService cria e acompanha ordens de retirada. Cada ordem congela um
// snapshot do cliente e das linhas selecionadas; mudanças futuras no
// catálogo não alteram ordens já emitidas.
type OrderService struct {
	db            *gorm.DB
	catalog       *CatalogService
	resellerLines []string
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db: db,
		resellerLines: []string{
			"Ribeira Beer Distribuidora de Bebidas Ltda",
			"Rua Arapongal N 40 - Arapongal",
			"Registro - SP",
			"11900-000",
		},
	}
}

// SetCatalogService injeta o catálogo usado para resolver cliente e inventário
func (os *OrderService) SetCatalogService(catalog *CatalogService) {
	os.catalog = catalog
}

// SetResellerLines troca o cabeçalho da revenda impresso nas ordens
func (os *OrderService) SetResellerLines(lines []string) {
	if len(lines) > 0 {
		os.resellerLines = lines
	}
}

// InventorySelection aponta uma linha do inventário e a quantidade desejada
type InventorySelection struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// ManualItem é uma linha digitada à mão, fora do inventário
type ManualItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	ItemType    string `json:"item_type"`
	RG          string `json:"rg"`
	VolumeKey   string `json:"volume_key"`
}

// WithdrawalRequest é o pedido de emissão de uma ordem de retirada
type WithdrawalRequest struct {
	Client            ClientRecord         `json:"client"`
	LookupCode        string               `json:"lookup_code"`
	SelectedInventory []InventorySelection `json:"selected_inventory"`
	ManualItems       []ManualItem         `json:"manual_items"`
	AutoSummary       string               `json:"auto_summary"`
	ObservacaoExtra   string               `json:"observacao_extra"`
	DataRetirada      string               `json:"data_retirada"`
	HoraRetirada      string               `json:"hora_retirada"`
	CompanyName       string               `json:"company_name"`
}

// OrderLine é uma linha resolvida da ordem, pronta para impressão
type OrderLine struct {
	Description  string `json:"description"`
	ItemType     string `json:"item_type"`
	TypeLabel    string `json:"type_label"`
	Quantity     int    `json:"quantity"`
	QuantityText string `json:"quantity_text"`
	RG           string `json:"rg"`
	VolumeKey    string `json:"volume_key"`
}

// WithdrawalDocument reúne tudo que o PDF precisa para ser montado
type WithdrawalDocument struct {
	OrderNumber          string
	CompanyName          string
	Client               ClientRecord
	Items                []OrderLine
	Observation          string
	SummaryLine          string
	WithdrawalDate       string
	WithdrawalTime       string
	GeneratedAt          string
	Copies               []string
	ResellerLines        []string
	OpenEquipmentSummary []string
}

func buildOrderLine(description string, quantity int, itemType, rg, volumeKey string) OrderLine {
	normalizedType := defaultItemType(itemType)
	line := OrderLine{
		Description: NormalizeSpaces(description),
		ItemType:    normalizedType,
		TypeLabel:   ItemTypeLabel(normalizedType),
		Quantity:    quantity,
		RG:          NormalizeSpaces(rg),
		VolumeKey:   strings.TrimSpace(volumeKey),
	}

	if normalizedType == ItemTypeVasilhameCaixa {
		bottles, ok := BottlesForCrates(line.VolumeKey, quantity)
		if !ok {
			line.QuantityText = fmt.Sprintf("%d caixas", quantity)
		} else {
			line.QuantityText = fmt.Sprintf("%d caixas - %d garrafas", quantity, bottles)
		}
	} else {
		line.QuantityText = fmt.Sprintf("%d", quantity)
	}
	return line
}

func buildSummary(lines []OrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		quantityText := line.QuantityText
		if quantityText == "" {
			quantityText = fmt.Sprintf("%d", line.Quantity)
		}
		if line.ItemType == ItemTypeRefrigerador && line.RG != "" {
			parts = append(parts, fmt.Sprintf("%s (RG %s) - %s", line.Description, line.RG, quantityText))
		} else {
			parts = append(parts, fmt.Sprintf("%s - %s", line.Description, quantityText))
		}
	}
	return strings.Join(parts, "; ")
}

// openEquipmentSummary resume, por tipo selecionado, tudo que o cliente
// ainda tem em aberto. Refrigeradores listam os RGs conhecidos.
func openEquipmentSummary(items []models.CatalogInventoryItem, selectedTypes map[string]bool) []string {
	if len(selectedTypes) == 0 {
		return nil
	}

	type groupRow struct {
		description string
		quantity    int
		rgs         []string
	}
	grouped := make(map[string]map[string]*groupRow)
	for _, item := range items {
		itemType := defaultItemType(item.ItemType)
		description := NormalizeSpaces(item.Description)

		slot, ok := grouped[itemType]
		if !ok {
			slot = make(map[string]*groupRow)
			grouped[itemType] = slot
		}
		row, ok := slot[description]
		if !ok {
			row = &groupRow{description: description}
			slot[description] = row
		}
		row.quantity += item.OpenQuantity
		if itemType == ItemTypeRefrigerador && strings.TrimSpace(item.RG) != "" {
			row.rgs = append(row.rgs, strings.TrimSpace(item.RG))
		}
	}

	types := make([]string, 0, len(selectedTypes))
	for itemType := range selectedTypes {
		types = append(types, itemType)
	}
	sort.Strings(types)

	var lines []string
	for _, itemType := range types {
		rows := make([]*groupRow, 0, len(grouped[itemType]))
		for _, row := range grouped[itemType] {
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].description) < strings.ToLower(rows[j].description)
		})
		for _, row := range rows {
			if itemType == ItemTypeRefrigerador && len(row.rgs) > 0 {
				lines = append(lines, fmt.Sprintf("%s - %d un. | RGs: %s", row.description, row.quantity, strings.Join(row.rgs, ", ")))
			} else {
				lines = append(lines, fmt.Sprintf("%s - %d", row.description, row.quantity))
			}
		}
	}
	return lines
}

func formatBrazilDate(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Now().Format("02/01/2006")
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.Format("02/01/2006")
	}
	return raw
}

// mergeClientFormWithDB completa campos vazios do formulário com o que há
// no banco, exceto os campos manuais
func mergeClientFormWithDB(form ClientRecord, stored *models.CatalogClient) ClientRecord {
	if stored == nil {
		return form
	}
	dbRecord := clientRecordFromModel(stored, true, "")
	manual := make(map[string]bool, len(manualClientFields))
	for _, field := range manualClientFields {
		manual[field] = true
	}
	for _, field := range clientFormFields {
		if manual[field] {
			continue
		}
		if strings.TrimSpace(form.Field(field)) == "" {
			form.SetField(field, dbRecord.Field(field))
		}
	}
	return form
}

// CreateWithdrawal valida a seleção, grava a ordem e devolve o documento
// pronto para virar PDF. Quantidades de itens do inventário são limitadas
// ao saldo em aberto; itens manuais entram como digitados.
func (os *OrderService) CreateWithdrawal(req WithdrawalRequest) (*models.WithdrawalOrder, *WithdrawalDocument, error) {
	searchCode := CanonicalCode(req.Client.ClientCode)
	if searchCode == "" {
		searchCode = CanonicalCode(req.LookupCode)
	}

	var clientModel *models.CatalogClient
	var inventoryItems []models.CatalogInventoryItem
	if searchCode != "" && os.catalog != nil {
		var err error
		clientModel, err = os.catalog.ClientModelByCode(searchCode)
		if err != nil {
			return nil, nil, err
		}
		if clientModel != nil {
			inventoryItems, err = os.catalog.InventoryForClient(clientModel.ID)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	clientData := mergeClientFormWithDB(req.Client, clientModel)
	if strings.TrimSpace(clientData.ClientCode) == "" && searchCode != "" {
		clientData.ClientCode = searchCode
	}
	if os.catalog != nil && os.catalog.cepClient != nil {
		os.catalog.cepClient.EnsureClientCEP(&clientData)
	} else if normalized := NormalizeCEP(clientData.Cep); normalized != "" {
		clientData.Cep = normalized
	}

	inventoryByID := make(map[int]models.CatalogInventoryItem, len(inventoryItems))
	for _, item := range inventoryItems {
		inventoryByID[item.ID] = item
	}

	var lines []OrderLine
	selectedTypes := make(map[string]bool)

	for _, selection := range req.SelectedInventory {
		item, ok := inventoryByID[selection.ItemID]
		if !ok {
			continue
		}
		quantity := selection.Quantity
		if quantity < 1 {
			quantity = 1
		}
		if quantity > item.OpenQuantity {
			quantity = item.OpenQuantity
		}
		if quantity <= 0 {
			continue
		}
		lines = append(lines, buildOrderLine(item.Description, quantity, item.ItemType, item.RG, item.VolumeKey))
		if itemType := defaultItemType(item.ItemType); itemType != ItemTypeOutro {
			selectedTypes[itemType] = true
		}
	}

	for _, manual := range req.ManualItems {
		description := NormalizeSpaces(manual.Description)
		if description == "" || manual.Quantity <= 0 {
			continue
		}
		itemType := defaultItemType(manual.ItemType)
		lines = append(lines, buildOrderLine(description, manual.Quantity, itemType, manual.RG, manual.VolumeKey))
		if itemType != ItemTypeOutro {
			selectedTypes[itemType] = true
		}
	}

	if len(lines) == 0 {
		return nil, nil, &ValidationError{Msg: "Selecione pelo menos um item para gerar a retirada."}
	}

	autoSummary := strings.TrimSpace(req.AutoSummary)
	if autoSummary == "" {
		autoSummary = buildSummary(lines)
	}
	observation := autoSummary
	if extra := strings.TrimSpace(req.ObservacaoExtra); extra != "" {
		observation = autoSummary + " | " + extra
	}

	withdrawalDate := formatBrazilDate(req.DataRetirada)
	withdrawalTime := strings.TrimSpace(req.HoraRetirada)
	companyName := strings.TrimSpace(req.CompanyName)
	if companyName == "" {
		companyName = "Ribeira Beer"
	}

	typeList := make([]string, 0, len(selectedTypes))
	for itemType := range selectedTypes {
		typeList = append(typeList, itemType)
	}
	sort.Strings(typeList)

	equipmentSummary := openEquipmentSummary(inventoryItems, selectedTypes)

	tx := os.db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}

	// Aproveita o CEP descoberto para enriquecer o cadastro
	if clientModel != nil && strings.TrimSpace(clientModel.Cep) == "" && strings.TrimSpace(clientData.Cep) != "" {
		if err := tx.Model(&models.CatalogClient{}).Where("id = ?", clientModel.ID).
			Update("cep", strings.TrimSpace(clientData.Cep)).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
	}

	order := models.WithdrawalOrder{
		CompanyName:            companyName,
		ClientCode:             strings.TrimSpace(clientData.ClientCode),
		NomeFantasia:           clientData.NomeFantasia,
		RazaoSocial:            clientData.RazaoSocial,
		CnpjCpf:                clientData.CnpjCpf,
		Setor:                  clientData.Setor,
		Telefone:               clientData.Telefone,
		Endereco:               clientData.Endereco,
		Bairro:                 clientData.Bairro,
		Cidade:                 clientData.Cidade,
		Cep:                    clientData.Cep,
		InscricaoEstadual:      clientData.InscricaoEstadual,
		ResponsavelCliente:     clientData.ResponsavelCliente,
		ResponsavelRetirada:    clientData.ResponsavelRetirada,
		ResponsavelConferencia: clientData.ResponsavelConferencia,
		WithdrawalDate:         withdrawalDate,
		WithdrawalTime:         withdrawalTime,
		SummaryLine:            autoSummary,
		Observation:            observation,
		SelectedTypes:          strings.Join(typeList, ","),
		Status:                 models.OrderStatusPending,
	}
	if clientModel != nil {
		order.ClientID = &clientModel.ID
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	order.OrderNumber = fmt.Sprintf("RET-%s-%06d", time.Now().Format("20060102"), order.ID)
	if err := tx.Model(&models.WithdrawalOrder{}).Where("id = ?", order.ID).
		Update("order_number", order.OrderNumber).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	orderItems := make([]models.WithdrawalOrderItem, 0, len(lines))
	for _, line := range lines {
		orderItems = append(orderItems, models.WithdrawalOrderItem{
			OrderID:      order.ID,
			Description:  line.Description,
			ItemType:     line.ItemType,
			Quantity:     line.Quantity,
			QuantityText: line.QuantityText,
			RG:           line.RG,
			VolumeKey:    line.VolumeKey,
		})
	}
	if err := tx.Create(&orderItems).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	order.Items = orderItems

	log.Printf("✅ Ordem %s emitida para o cliente %s (%d itens)", order.OrderNumber, order.ClientCode, len(lines))

	doc := &WithdrawalDocument{
		OrderNumber:          order.OrderNumber,
		CompanyName:          companyName,
		Client:               clientData,
		Items:                lines,
		Observation:          observation,
		SummaryLine:          autoSummary,
		WithdrawalDate:       withdrawalDate,
		WithdrawalTime:       withdrawalTime,
		GeneratedAt:          time.Now().Format("02/01/2006 15:04"),
		Copies:               []string{"Via do Cliente", "Via da Logística"},
		ResellerLines:        os.resellerLines,
		OpenEquipmentSummary: equipmentSummary,
	}
	return &order, doc, nil
}

// ListOrders devolve as ordens mais recentes, limitadas a 300
func (os *OrderService) ListOrders() ([]models.WithdrawalOrder, error) {
	var orders []models.WithdrawalOrder
	if err := os.db.Preload("Items").Order("id DESC").Limit(300).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder busca uma ordem pelo id, com as linhas
func (os *OrderService) GetOrder(id int) (*models.WithdrawalOrder, error) {
	var order models.WithdrawalOrder
	err := os.db.Preload("Items").First(&order, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Msg: "Ordem de retirada não encontrada."}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

var validOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusCompleted: true,
	models.OrderStatusCancelled: true,
}

// UpdateStatus muda o status da ordem registrando quem mudou e quando
func (os *OrderService) UpdateStatus(id int, status, note, changedBy string) (*models.WithdrawalOrder, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if !validOrderStatuses[status] {
		return nil, &ValidationError{Msg: "Status inválido. Use pendente, concluida ou cancelada."}
	}

	order, err := os.GetOrder(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            status,
		"status_note":       strings.TrimSpace(note),
		"status_changed_by": strings.TrimSpace(changedBy),
		"status_changed_at": now,
	}
	if err := os.db.Model(&models.WithdrawalOrder{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	order.Status = status
	order.StatusNote = strings.TrimSpace(note)
	order.StatusChangedBy = strings.TrimSpace(changedBy)
	order.StatusChangedAt = &now
	return order, nil
}

// DeleteOrder remove uma ordem cancelada e suas linhas. Ordens pendentes
// ou concluídas fazem parte do histórico e não podem ser apagadas.
func (os *OrderService) DeleteOrder(id int) error {
	order, err := os.GetOrder(id)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusCancelled {
		return &ConflictError{Msg: "Só ordens canceladas podem ser removidas."}
	}

	tx := os.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.WithdrawalOrderItem{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.WithdrawalOrder{}, order.ID).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

var nonFileCharRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeFilenameChunk limpa um texto para uso em nome de arquivo
func SafeFilenameChunk(text string) string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return "sem_codigo"
	}
	chunk := nonFileCharRe.ReplaceAllString(raw, "_")
	chunk = strings.Trim(chunk, "_")
	if chunk == "" {
		return "sem_codigo"
	}
	return chunk
}
