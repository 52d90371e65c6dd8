package services

import (
	"log"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// CatalogService mantém o catálogo de retiradas: ingestão dos dois CSVs,
// consulta por cliente e o status do último lote carregado.
type CatalogService struct {
	db        *gorm.DB
	cepClient *ViaCEPClient
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// SetCEPClient habilita o preenchimento automático de CEP via ViaCEP
func (cs *CatalogService) SetCEPClient(client *ViaCEPClient) {
	cs.cepClient = client
}

// CatalogStats são os contadores de um lote de ingestão
type CatalogStats struct {
	ClientsCount     int `json:"clients_count"`
	InventoryClients int `json:"inventory_clients"`
	OpenItems        int `json:"open_items"`
	SkippedRows      int `json:"linhas_ignoradas"`
}

// CatalogStatus descreve se há dados carregados e de quando
type CatalogStatus struct {
	DatasetReady bool         `json:"dataset_ready"`
	LoadedAt     *time.Time   `json:"loaded_at"`
	Stats        CatalogStats `json:"stats"`
}

// InventoryItemOut é a forma de exibição de uma linha em aberto
type InventoryItemOut struct {
	ID             int    `json:"id"`
	Description    string `json:"description"`
	ItemType       string `json:"item_type"`
	TypeLabel      string `json:"type_label"`
	OpenQuantity   int    `json:"open_quantity"`
	RG             string `json:"rg"`
	ComodatoNumber string `json:"comodato_number"`
	DataEmissao    string `json:"data_emissao"`
	VolumeKey      string `json:"volume_key"`
}

// ClientLookup é o resultado da busca por código de cliente
type ClientLookup struct {
	MatchedCode   string             `json:"matched_code"`
	FoundAnything bool               `json:"found_anything"`
	Client        ClientRecord       `json:"client"`
	Items         []InventoryItemOut `json:"items"`
}

// Ingest processa os dois CSVs e grava um lote novo de forma atômica. Os
// clientes são upsertados (o código nunca muda); o inventário do lote
// anterior permanece no banco, fora das consultas correntes.
func (cs *CatalogService) Ingest(clientsData []byte, clientsName string, inventoryData []byte, inventoryName string) (*CatalogStats, error) {
	clients, err := ParseClientsCSV(clientsData, clientsName)
	if err != nil {
		return nil, err
	}
	inventory, skipped, err := ParseInventoryCSV(inventoryData, inventoryName)
	if err != nil {
		return nil, err
	}
	merged := MergeClientsWithInventory(clients, inventory)

	tx := cs.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	batch := models.CatalogUploadBatch{
		ClientsFileName:   strings.TrimSpace(clientsName),
		InventoryFileName: strings.TrimSpace(inventoryName),
	}
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Upsert dos clientes pelo código canônico
	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	existing := make(map[string]*models.CatalogClient)
	if len(codes) > 0 {
		var rows []models.CatalogClient
		if err := tx.Where("client_code IN ?", codes).Find(&rows).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		for i := range rows {
			existing[rows[i].ClientCode] = &rows[i]
		}
	}

	for _, code := range codes {
		record := merged[code]
		client, ok := existing[code]
		if !ok {
			client = &models.CatalogClient{ClientCode: code}
		}
		applyRecordToClient(client, record)
		if err := tx.Save(client).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		existing[code] = client
	}

	openItems := 0
	var itemRows []models.CatalogInventoryItem
	for code, items := range inventory {
		client, ok := existing[code]
		if !ok {
			client = &models.CatalogClient{ClientCode: code}
			if err := tx.Create(client).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing[code] = client
		}

		batchID := batch.ID
		for _, item := range items {
			itemRows = append(itemRows, models.CatalogInventoryItem{
				ClientID:         client.ID,
				BatchID:          &batchID,
				Description:      item.Description,
				ItemType:         defaultItemType(item.ItemType),
				OpenQuantity:     item.OpenQuantity,
				RG:               item.RG,
				ComodatoNumber:   item.ComodatoNumber,
				InvoiceIssueDate: item.IssueDate,
				VolumeKey:        item.VolumeKey,
				SourceBaixados:   item.SourceBaixados,
				ProductCode:      item.ProductCode,
			})
			openItems++
		}
	}
	if len(itemRows) > 0 {
		if err := tx.CreateInBatches(itemRows, 1500).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	stats := CatalogStats{
		ClientsCount:     len(merged),
		InventoryClients: len(inventory),
		OpenItems:        openItems,
		SkippedRows:      skipped,
	}
	updates := map[string]interface{}{
		"clients_count":     stats.ClientsCount,
		"inventory_clients": stats.InventoryClients,
		"open_items":        stats.OpenItems,
		"skipped_rows":      stats.SkippedRows,
	}
	if err := tx.Model(&models.CatalogUploadBatch{}).Where("id = ?", batch.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Lote %d gravado: %d clientes, %d itens em aberto, %d linhas ignoradas",
		batch.ID, stats.ClientsCount, stats.OpenItems, stats.SkippedRows)
	return &stats, nil
}

// Status devolve os contadores do último lote. Sem lote (dados legados),
// os contadores são agregados direto das tabelas.
func (cs *CatalogService) Status() (*CatalogStatus, error) {
	var batch models.CatalogUploadBatch
	err := cs.db.Order("id DESC").First(&batch).Error
	if err == nil {
		loadedAt := batch.UploadedAt
		return &CatalogStatus{
			DatasetReady: true,
			LoadedAt:     &loadedAt,
			Stats: CatalogStats{
				ClientsCount:     batch.ClientsCount,
				InventoryClients: batch.InventoryClients,
				OpenItems:        batch.OpenItems,
				SkippedRows:      batch.SkippedRows,
			},
		}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var clientsCount, openItems, inventoryClients int64
	if err := cs.db.Model(&models.CatalogClient{}).Count(&clientsCount).Error; err != nil {
		return nil, err
	}
	if err := cs.db.Model(&models.CatalogInventoryItem{}).Count(&openItems).Error; err != nil {
		return nil, err
	}
	if err := cs.db.Model(&models.CatalogInventoryItem{}).Distinct("client_id").Count(&inventoryClients).Error; err != nil {
		return nil, err
	}

	return &CatalogStatus{
		DatasetReady: clientsCount > 0 || openItems > 0,
		Stats: CatalogStats{
			ClientsCount:     int(clientsCount),
			InventoryClients: int(inventoryClients),
			OpenItems:        int(openItems),
		},
	}, nil
}

// LatestBatchID devolve o id do último lote (0 quando não há nenhum)
func (cs *CatalogService) LatestBatchID() (int, error) {
	var batch models.CatalogUploadBatch
	err := cs.db.Select("id").Order("id DESC").First(&batch).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return batch.ID, nil
}

func (cs *CatalogService) usesBatchedInventory() (bool, error) {
	var item models.CatalogInventoryItem
	err := cs.db.Select("id").Where("batch_id IS NOT NULL").First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InventoryForClient lista as linhas em aberto do cliente. Com lotes no
// banco, só o lote mais recente conta; bancos legados sem batch_id
// devolvem tudo.
func (cs *CatalogService) InventoryForClient(clientID int) ([]models.CatalogInventoryItem, error) {
	query := cs.db.Where("client_id = ?", clientID)

	batched, err := cs.usesBatchedInventory()
	if err != nil {
		return nil, err
	}
	if batched {
		latest, err := cs.LatestBatchID()
		if err != nil {
			return nil, err
		}
		if latest == 0 {
			return nil, nil
		}
		query = query.Where("batch_id = ?", latest)
	}

	var items []models.CatalogInventoryItem
	if err := query.Order("item_type ASC, description ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindClient busca um cliente pelo código digitado. Sempre responde, mesmo
// sem dados: o formulário abre em branco com o código pesquisado. Os
// campos manuais voltam sempre vazios.
func (cs *CatalogService) FindClient(code string) (*ClientLookup, error) {
	searchCode := CanonicalCode(code)
	if searchCode == "" {
		return &ClientLookup{Items: []InventoryItemOut{}}, nil
	}

	var client models.CatalogClient
	found := true
	err := cs.db.Where("client_code = ?", searchCode).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		found = false
	} else if err != nil {
		return nil, err
	}

	var items []models.CatalogInventoryItem
	if found {
		items, err = cs.InventoryForClient(client.ID)
		if err != nil {
			return nil, err
		}
	}

	record := clientRecordFromModel(&client, found, searchCode)
	if cs.cepClient != nil {
		cs.cepClient.EnsureClientCEP(&record)
	} else if normalized := NormalizeCEP(record.Cep); normalized != "" {
		record.Cep = normalized
	}
	ClearManualClientFields(&record)

	out := make([]InventoryItemOut, 0, len(items))
	for _, item := range items {
		out = append(out, inventoryItemOut(item))
	}

	return &ClientLookup{
		MatchedCode:   searchCode,
		FoundAnything: found || len(out) > 0,
		Client:        record,
		Items:         out,
	}, nil
}

// ClientModelByCode busca o registro persistido pelo código canônico
func (cs *CatalogService) ClientModelByCode(code string) (*models.CatalogClient, error) {
	searchCode := CanonicalCode(code)
	if searchCode == "" {
		return nil, nil
	}
	var client models.CatalogClient
	err := cs.db.Where("client_code = ?", searchCode).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func defaultItemType(itemType string) string {
	if strings.TrimSpace(itemType) == "" {
		return ItemTypeOutro
	}
	return itemType
}

func inventoryItemOut(item models.CatalogInventoryItem) InventoryItemOut {
	itemType := defaultItemType(item.ItemType)
	return InventoryItemOut{
		ID:             item.ID,
		Description:    strings.TrimSpace(item.Description),
		ItemType:       itemType,
		TypeLabel:      ItemTypeLabel(itemType),
		OpenQuantity:   item.OpenQuantity,
		RG:             strings.TrimSpace(item.RG),
		ComodatoNumber: strings.TrimSpace(item.ComodatoNumber),
		DataEmissao:    strings.TrimSpace(item.InvoiceIssueDate),
		VolumeKey:      strings.TrimSpace(item.VolumeKey),
	}
}

func applyRecordToClient(client *models.CatalogClient, record ClientRecord) {
	client.NomeFantasia = strings.TrimSpace(record.NomeFantasia)
	client.RazaoSocial = strings.TrimSpace(record.RazaoSocial)
	client.CnpjCpf = strings.TrimSpace(record.CnpjCpf)
	client.Setor = strings.TrimSpace(record.Setor)
	client.Telefone = strings.TrimSpace(record.Telefone)
	client.Endereco = strings.TrimSpace(record.Endereco)
	client.Bairro = strings.TrimSpace(record.Bairro)
	client.Cidade = strings.TrimSpace(record.Cidade)
	client.Cep = strings.TrimSpace(record.Cep)
	client.InscricaoEstadual = strings.TrimSpace(record.InscricaoEstadual)
	client.ResponsavelCliente = strings.TrimSpace(record.ResponsavelCliente)
	client.ResponsavelRetirada = strings.TrimSpace(record.ResponsavelRetirada)
	client.ResponsavelConferencia = strings.TrimSpace(record.ResponsavelConferencia)
}

func clientRecordFromModel(client *models.CatalogClient, found bool, fallbackCode string) ClientRecord {
	if !found || client == nil {
		return ClientRecord{ClientCode: fallbackCode}
	}
	return ClientRecord{
		ClientCode:             strings.TrimSpace(client.ClientCode),
		NomeFantasia:           strings.TrimSpace(client.NomeFantasia),
		RazaoSocial:            strings.TrimSpace(client.RazaoSocial),
		CnpjCpf:                strings.TrimSpace(client.CnpjCpf),
		Setor:                  strings.TrimSpace(client.Setor),
		Telefone:               strings.TrimSpace(client.Telefone),
		Endereco:               strings.TrimSpace(client.Endereco),
		Bairro:                 strings.TrimSpace(client.Bairro),
		Cidade:                 strings.TrimSpace(client.Cidade),
		Cep:                    strings.TrimSpace(client.Cep),
		InscricaoEstadual:      strings.TrimSpace(client.InscricaoEstadual),
		ResponsavelCliente:     strings.TrimSpace(client.ResponsavelCliente),
		ResponsavelRetirada:    strings.TrimSpace(client.ResponsavelRetirada),
		ResponsavelConferencia: strings.TrimSpace(client.ResponsavelConferencia),
	}
}
