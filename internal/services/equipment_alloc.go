package services

import (
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// Cruzamento do cadastro de equipamentos com o inventário 02.02.20. A
// identidade entre os dois mundos são os tokens de RG/etiqueta: um
// refrigerador do cadastro está "alocado em campo" quando algum token
// dele aparece nas linhas de refrigerador em aberto do último lote.

var invoiceDateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
	"2006/01/02",
}

func parseInventoryIssueDate(raw string, fallback time.Time) time.Time {
	text := NormalizeSpaces(raw)
	if text != "" {
		for _, layout := range invoiceDateLayouts {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed
			}
		}
	}
	if !fallback.IsZero() {
		return fallback
	}
	return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (es *EquipmentService) inventoryUsesBatches() (bool, error) {
	var item models.CatalogInventoryItem
	err := es.db.Select("id").Where("batch_id IS NOT NULL").First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (es *EquipmentService) latestInventoryBatchID() (int, error) {
	var batch models.CatalogUploadBatch
	err := es.db.Select("id").Order("id DESC").First(&batch).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return batch.ID, nil
}

// applyInventoryBaseFilter restringe a consulta às linhas em aberto do
// lote corrente. Bancos legados sem lote consideram tudo.
func (es *EquipmentService) applyInventoryBaseFilter(query *gorm.DB) (*gorm.DB, error) {
	filtered := query.Where("pickup_catalog_inventory_items.open_quantity > 0")
	batched, err := es.inventoryUsesBatches()
	if err != nil {
		return nil, err
	}
	if !batched {
		return filtered, nil
	}
	latest, err := es.latestInventoryBatchID()
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return filtered.Where("pickup_catalog_inventory_items.id = -1"), nil
	}
	return filtered.Where("pickup_catalog_inventory_items.batch_id = ?", latest), nil
}

// AllocatedLedgerTokens coleta os tokens de RG de todas as linhas de
// refrigerador em aberto do lote corrente. Linhas com tipo "outro" ainda
// contam se a descrição inferir refrigerador.
func (es *EquipmentService) AllocatedLedgerTokens() (TokenSet, error) {
	query := es.db.Model(&models.CatalogInventoryItem{}).
		Select("item_type", "description", "rg")
	query, err := es.applyInventoryBaseFilter(query)
	if err != nil {
		return nil, err
	}

	var rows []models.CatalogInventoryItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	tokens := make(TokenSet)
	for _, row := range rows {
		mapped := MaterialTypeBucket(NormalizeSpaces(row.ItemType))
		if mapped != ItemTypeRefrigerador {
			inferred := MaterialTypeBucket(ClassifyItemType(NormalizeSpaces(row.Description)))
			if inferred != ItemTypeRefrigerador {
				continue
			}
		}
		tokens = tokens.Union(CodeLookupTokens(row.RG))
	}
	return tokens, nil
}

// IsAllocatedInLedger verifica se algum token do equipamento intersecta o
// 02.02.20. Passe tokens pré-computados para evitar reconsultas em lote.
func (es *EquipmentService) IsAllocatedInLedger(rgCode, tagCode string, allocatedTokens TokenSet) (bool, error) {
	equipmentTokens := EquipmentLookupTokens(rgCode, tagCode)
	if len(equipmentTokens) == 0 {
		return false, nil
	}
	tokens := allocatedTokens
	if tokens == nil {
		var err error
		tokens, err = es.AllocatedLedgerTokens()
		if err != nil {
			return false, err
		}
	}
	return tokens.Intersects(equipmentTokens), nil
}

// AllocationSyncResult relata uma rodada de sincronização de status
type AllocationSyncResult struct {
	ScannedCount int   `json:"scanned_count"`
	MatchedCount int   `json:"matched_020220_count"`
	UpdatedCount int   `json:"updated_count"`
	UpdatedIDs   []int `json:"updated_ids"`
}

// SyncAllocationStatus vira para "alocado" os refrigeradores novo/
// disponível cujo RG ou etiqueta constam em aberto no 02.02.20. A
// operação é idempotente: a segunda rodada não muda nada. As viradas
// acontecem em uma única transação: uma falha no meio da varredura
// desfaz todas.
func (es *EquipmentService) SyncAllocationStatus() (*AllocationSyncResult, error) {
	var rows []models.Equipment
	err := es.db.Where("category = ? AND status IN ?", "refrigerador",
		[]string{EquipmentStatusNovo, EquipmentStatusDisponivel}).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := &AllocationSyncResult{ScannedCount: len(rows), UpdatedIDs: []int{}}
	if len(rows) == 0 {
		return result, nil
	}

	allocatedTokens, err := es.AllocatedLedgerTokens()
	if err != nil {
		return nil, err
	}
	if len(allocatedTokens) == 0 {
		return result, nil
	}

	tx := es.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	for i := range rows {
		row := &rows[i]
		matched, err := es.IsAllocatedInLedger(strVal(row.RGCode), strVal(row.TagCode), allocatedTokens)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !matched {
			continue
		}
		result.MatchedCount++
		if err := tx.Model(&models.Equipment{}).Where("id = ?", row.ID).
			Update("status", EquipmentStatusAlocado).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		result.UpdatedIDs = append(result.UpdatedIDs, row.ID)
	}
	result.UpdatedCount = len(result.UpdatedIDs)

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if result.UpdatedCount > 0 {
		log.Printf("🔄 Sincronização 02.02.20: %d refrigeradores marcados como alocados", result.UpdatedCount)
	}
	return result, nil
}

// PageMeta descreve a página devolvida por listagens paginadas
type PageMeta struct {
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	Total       int  `json:"total"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

func buildPageMeta(limit, offset, total int) PageMeta {
	return PageMeta{
		Limit:       limit,
		Offset:      offset,
		Total:       total,
		HasNext:     offset+limit < total,
		HasPrevious: offset > 0,
	}
}

// RefrigeratorItem é a forma de exibição de um refrigerador do cadastro
type RefrigeratorItem struct {
	ID         int       `json:"id"`
	ModelName  string    `json:"model_name"`
	Brand      string    `json:"brand"`
	Voltage    string    `json:"voltage"`
	RGCode     string    `json:"rg_code"`
	TagCode    string    `json:"tag_code"`
	Status     string    `json:"status"`
	ClientName *string   `json:"client_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func refrigeratorItem(row models.Equipment) RefrigeratorItem {
	voltage := NormalizeSpaces(row.Voltage)
	if voltage == "" {
		voltage = "nao_informado"
	}
	return RefrigeratorItem{
		ID:         row.ID,
		ModelName:  NormalizeSpaces(row.ModelName),
		Brand:      NormalizeSpaces(row.Brand),
		Voltage:    voltage,
		RGCode:     NormalizeSpaces(strVal(row.RGCode)),
		TagCode:    NormalizeSpaces(strVal(row.TagCode)),
		Status:     NormalizeSpaces(row.Status),
		ClientName: optionalText(strVal(row.ClientName)),
		CreatedAt:  row.CreatedAt,
	}
}

func (es *EquipmentService) refrigeratorSearchFilter(query *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return query
	}
	pattern := likePattern(search)
	return query.Where(
		`LOWER(model_name) LIKE ? OR LOWER(COALESCE(brand, '')) LIKE ? OR LOWER(COALESCE(voltage, '')) LIKE ?
			OR LOWER(COALESCE(rg_code, '')) LIKE ? OR LOWER(COALESCE(tag_code, '')) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?`,
		pattern, pattern, pattern, pattern, pattern, pattern,
	)
}

// NewRefrigeratorList é a página de refrigeradores com status novo
type NewRefrigeratorList struct {
	Items []RefrigeratorItem `json:"items"`
	Page  PageMeta           `json:"page"`
}

// ListNewRefrigerators pagina os refrigeradores com status novo
func (es *EquipmentService) ListNewRefrigerators(q, sortOrder string, limit, offset int) (*NewRefrigeratorList, error) {
	normalizedSort, err := normalizeSort(sortOrder)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := es.db.Model(&models.Equipment{}).
		Where("category = ? AND status = ?", "refrigerador", EquipmentStatusNovo)
	query = es.refrigeratorSearchFilter(query, NormalizeSpaces(q))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	order := "created_at DESC, id DESC"
	if normalizedSort == "oldest" {
		order = "created_at ASC, id ASC"
	}
	var rows []models.Equipment
	if err := query.Order(order).Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]RefrigeratorItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, refrigeratorItem(row))
	}
	return &NewRefrigeratorList{
		Items: items,
		Page:  buildPageMeta(limit, offset, int(total)),
	}, nil
}

func normalizeSort(value string) (string, error) {
	normalized := NormalizeLookupText(value)
	if normalized == "" || normalized == "newest" {
		return "newest", nil
	}
	if normalized == "oldest" {
		return "oldest", nil
	}
	return "", &ValidationError{Msg: "Ordenação inválida."}
}

// ListAvailableForComodato lista refrigeradores novo/disponível que NÃO
// constam alocados no 02.02.20, novos primeiro, ordem alfabética dentro
// do status
func (es *EquipmentService) ListAvailableForComodato(q string, limit, offset int) ([]RefrigeratorItem, error) {
	if limit < 1 || limit > 1000 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	query := es.db.Model(&models.Equipment{}).
		Where("category = ? AND status IN ?", "refrigerador",
			[]string{EquipmentStatusNovo, EquipmentStatusDisponivel})
	query = es.refrigeratorSearchFilter(query, NormalizeSpaces(q))

	var rows []models.Equipment
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []RefrigeratorItem{}, nil
	}

	allocatedTokens, err := es.AllocatedLedgerTokens()
	if err != nil {
		return nil, err
	}

	var filtered []models.Equipment
	for _, row := range rows {
		equipmentTokens := EquipmentLookupTokens(strVal(row.RGCode), strVal(row.TagCode))
		if len(equipmentTokens) > 0 && allocatedTokens.Intersects(equipmentTokens) {
			continue
		}
		filtered = append(filtered, row)
	}

	sort.Slice(filtered, func(i, j int) bool {
		si := 1
		if NormalizeLookupText(filtered[i].Status) == EquipmentStatusNovo {
			si = 0
		}
		sj := 1
		if NormalizeLookupText(filtered[j].Status) == EquipmentStatusNovo {
			sj = 0
		}
		if si != sj {
			return si < sj
		}
		ni := strings.ToLower(NormalizeSpaces(filtered[i].ModelName))
		nj := strings.ToLower(NormalizeSpaces(filtered[j].ModelName))
		if ni != nj {
			return ni < nj
		}
		return filtered[i].ID < filtered[j].ID
	})

	if offset >= len(filtered) {
		return []RefrigeratorItem{}, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	items := make([]RefrigeratorItem, 0, end-offset)
	for _, row := range filtered[offset:end] {
		items = append(items, refrigeratorItem(row))
	}
	return items, nil
}

// NonAllocatedDashboard são as contagens do painel de não alocados
type NonAllocatedDashboard struct {
	TotalNaoAlocados int `json:"total_nao_alocados"`
	Novo             int `json:"novo"`
	Disponivel       int `json:"disponivel"`
	Recap            int `json:"recap"`
	Sucata           int `json:"sucata"`
}

// NonAllocatedList é a resposta paginada de refrigeradores não alocados
type NonAllocatedList struct {
	Dashboard NonAllocatedDashboard `json:"dashboard"`
	Items     []RefrigeratorItem    `json:"items"`
	Page      PageMeta              `json:"page"`
}

// ListNonAllocated lista refrigeradores sem alocação nem no cadastro nem
// no 02.02.20, com contadores por status
func (es *EquipmentService) ListNonAllocated(q, statusFilter, sortOrder string, limit, offset int) (*NonAllocatedList, error) {
	normalizedSort, err := normalizeSort(sortOrder)
	if err != nil {
		return nil, err
	}
	normalizedStatus := NormalizeLookupText(statusFilter)
	if normalizedStatus == "" {
		normalizedStatus = "todos"
	}
	allowed := map[string]bool{"todos": true, "novo": true, "disponivel": true, "recap": true, "sucata": true}
	if !allowed[normalizedStatus] {
		return nil, &ValidationError{Msg: "Status inválido para consulta de refrigeradores."}
	}
	if limit < 1 || limit > 50 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	query := es.db.Model(&models.Equipment{}).
		Where("category = ? AND status <> ?", "refrigerador", EquipmentStatusAlocado)
	switch normalizedStatus {
	case "disponivel":
		query = query.Where("status IN ?", []string{EquipmentStatusNovo, EquipmentStatusDisponivel})
	case "todos":
	default:
		query = query.Where("status = ?", normalizedStatus)
	}
	query = es.refrigeratorSearchFilter(query, NormalizeSpaces(q))

	var rows []models.Equipment
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	allocatedTokens, err := es.AllocatedLedgerTokens()
	if err != nil {
		return nil, err
	}

	dashboard := NonAllocatedDashboard{}
	var filtered []models.Equipment
	for _, row := range rows {
		equipmentTokens := EquipmentLookupTokens(strVal(row.RGCode), strVal(row.TagCode))
		if len(equipmentTokens) > 0 && allocatedTokens.Intersects(equipmentTokens) {
			continue
		}
		switch NormalizeLookupText(row.Status) {
		case EquipmentStatusNovo:
			dashboard.Novo++
		case EquipmentStatusDisponivel:
			dashboard.Disponivel++
		case EquipmentStatusRecap:
			dashboard.Recap++
		case EquipmentStatusSucata:
			dashboard.Sucata++
		}
		filtered = append(filtered, row)
	}

	if normalizedSort == "oldest" {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	total := len(filtered)
	dashboard.TotalNaoAlocados = total

	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	items := make([]RefrigeratorItem, 0, end-offset)
	for _, row := range filtered[offset:end] {
		items = append(items, refrigeratorItem(row))
	}

	return &NonAllocatedList{
		Dashboard: dashboard,
		Items:     items,
		Page:      buildPageMeta(limit, offset, total),
	}, nil
}

// AllocatedRefrigeratorItem é uma linha de refrigerador em campo (02.02.20)
type AllocatedRefrigeratorItem struct {
	InventoryItemID  int    `json:"inventory_item_id"`
	ModelName        string `json:"model_name"`
	RGCode           string `json:"rg_code"`
	ClientCode       string `json:"client_code"`
	NomeFantasia     string `json:"nome_fantasia"`
	Quantity         int    `json:"quantity"`
	ComodatoNumber   string `json:"comodato_number"`
	InvoiceIssueDate string `json:"invoice_issue_date"`
}

// RefrigeratorDashboard resume o parque de refrigeradores
type RefrigeratorDashboard struct {
	TotalCadastrados       int `json:"total_cadastrados"`
	NovosCadastrados       int `json:"novos_cadastrados"`
	DisponiveisCadastrados int `json:"disponiveis_cadastrados"`
	RecapCadastrados       int `json:"recap_cadastrados"`
	SucataCadastrados      int `json:"sucata_cadastrados"`
	AlocadosCadastrados    int `json:"alocados_cadastrados"`
	AlocadosLedgerLinhas   int `json:"alocados_020220_linhas"`
	AlocadosLedgerUnidades int `json:"alocados_020220_unidades"`
	ClientesAlocadosLedger int `json:"clientes_alocados_020220"`
}

// RefrigeratorsOverview junta o painel, os novos e os alocados em campo
type RefrigeratorsOverview struct {
	Dashboard RefrigeratorDashboard       `json:"dashboard"`
	Novos     []RefrigeratorItem          `json:"novos"`
	Alocados  []AllocatedRefrigeratorItem `json:"alocados_020220"`
}

type allocatedRefrigeratorRow struct {
	InventoryItemID  int
	ItemType         string
	ModelName        string
	RGCode           string
	Quantity         int
	ComodatoNumber   string
	InvoiceIssueDate string
	ClientCode       string
	NomeFantasia     string
	Setor            string
	CreatedAt        time.Time
}

func (es *EquipmentService) allocatedRefrigeratorQuery() (*gorm.DB, error) {
	query := es.db.Model(&models.CatalogInventoryItem{}).
		Select(`pickup_catalog_inventory_items.id AS inventory_item_id,
			pickup_catalog_inventory_items.item_type AS item_type,
			pickup_catalog_inventory_items.description AS model_name,
			pickup_catalog_inventory_items.rg AS rg_code,
			pickup_catalog_inventory_items.open_quantity AS quantity,
			pickup_catalog_inventory_items.comodato_number AS comodato_number,
			pickup_catalog_inventory_items.invoice_issue_date AS invoice_issue_date,
			pickup_catalog_inventory_items.created_at AS created_at,
			pickup_catalog_clients.client_code AS client_code,
			pickup_catalog_clients.nome_fantasia AS nome_fantasia,
			pickup_catalog_clients.setor AS setor`).
		Joins("JOIN pickup_catalog_clients ON pickup_catalog_clients.id = pickup_catalog_inventory_items.client_id")
	return es.applyInventoryBaseFilter(query)
}

// RefrigeratorsOverview monta o painel de refrigeradores: contagens por
// status no cadastro, totais do 02.02.20 e as duas listas de destaque
func (es *EquipmentService) RefrigeratorsOverview(novosLimit, alocadosLimit int) (*RefrigeratorsOverview, error) {
	if novosLimit < 1 || novosLimit > 800 {
		novosLimit = 240
	}
	if alocadosLimit < 1 || alocadosLimit > 800 {
		alocadosLimit = 240
	}

	var statusRows []models.Equipment
	if err := es.db.Select("status").Where("category = ?", "refrigerador").Find(&statusRows).Error; err != nil {
		return nil, err
	}
	dashboard := RefrigeratorDashboard{}
	for _, row := range statusRows {
		switch NormalizeLookupText(row.Status) {
		case EquipmentStatusNovo:
			dashboard.NovosCadastrados++
		case EquipmentStatusDisponivel:
			dashboard.DisponiveisCadastrados++
		case EquipmentStatusRecap:
			dashboard.RecapCadastrados++
		case EquipmentStatusSucata:
			dashboard.SucataCadastrados++
		case EquipmentStatusAlocado:
			dashboard.AlocadosCadastrados++
		default:
			continue
		}
		dashboard.TotalCadastrados++
	}

	var novosRows []models.Equipment
	if err := es.db.Where("category = ? AND status = ?", "refrigerador", EquipmentStatusNovo).
		Order("created_at DESC, id DESC").Limit(novosLimit).Find(&novosRows).Error; err != nil {
		return nil, err
	}
	novos := make([]RefrigeratorItem, 0, len(novosRows))
	for _, row := range novosRows {
		novos = append(novos, refrigeratorItem(row))
	}

	ledgerQuery := func() (*gorm.DB, error) {
		query := es.db.Model(&models.CatalogInventoryItem{}).
			Where("pickup_catalog_inventory_items.item_type = ?", ItemTypeRefrigerador)
		return es.applyInventoryBaseFilter(query)
	}

	countQuery, err := ledgerQuery()
	if err != nil {
		return nil, err
	}
	var linhas int64
	if err := countQuery.Count(&linhas).Error; err != nil {
		return nil, err
	}
	dashboard.AlocadosLedgerLinhas = int(linhas)

	sumQuery, err := ledgerQuery()
	if err != nil {
		return nil, err
	}
	var unidades int64
	if err := sumQuery.Select("COALESCE(SUM(open_quantity), 0)").Scan(&unidades).Error; err != nil {
		return nil, err
	}
	dashboard.AlocadosLedgerUnidades = int(unidades)

	clientsQuery, err := ledgerQuery()
	if err != nil {
		return nil, err
	}
	var clientes int64
	if err := clientsQuery.Distinct("client_id").Count(&clientes).Error; err != nil {
		return nil, err
	}
	dashboard.ClientesAlocadosLedger = int(clientes)

	allocQuery, err := es.allocatedRefrigeratorQuery()
	if err != nil {
		return nil, err
	}
	var allocRows []allocatedRefrigeratorRow
	if err := allocQuery.
		Where("pickup_catalog_inventory_items.item_type = ?", ItemTypeRefrigerador).
		Order("nome_fantasia ASC, model_name ASC, inventory_item_id DESC").
		Limit(alocadosLimit).
		Scan(&allocRows).Error; err != nil {
		return nil, err
	}

	alocados := make([]AllocatedRefrigeratorItem, 0, len(allocRows))
	for _, row := range allocRows {
		alocados = append(alocados, AllocatedRefrigeratorItem{
			InventoryItemID:  row.InventoryItemID,
			ModelName:        NormalizeSpaces(row.ModelName),
			RGCode:           NormalizeSpaces(row.RGCode),
			ClientCode:       NormalizeSpaces(row.ClientCode),
			NomeFantasia:     NormalizeSpaces(row.NomeFantasia),
			Quantity:         row.Quantity,
			ComodatoNumber:   NormalizeSpaces(row.ComodatoNumber),
			InvoiceIssueDate: NormalizeSpaces(row.InvoiceIssueDate),
		})
	}

	return &RefrigeratorsOverview{
		Dashboard: dashboard,
		Novos:     novos,
		Alocados:  alocados,
	}, nil
}

// AllocationLookupItem é uma linha do 02.02.20 que bateu com o RG consultado
type AllocationLookupItem struct {
	InventoryItemID  int    `json:"inventory_item_id"`
	RGCode           string `json:"rg_code"`
	TagCode          string `json:"tag_code"`
	ClientCode       string `json:"client_code"`
	NomeFantasia     string `json:"nome_fantasia"`
	Setor            string `json:"setor"`
	ModelName        string `json:"model_name"`
	InvoiceIssueDate string `json:"invoice_issue_date"`
}

// AllocationLookupResult é a resposta da consulta por RG/etiqueta
type AllocationLookupResult struct {
	RGCode  string                 `json:"rg_code"`
	TagCode string                 `json:"tag_code"`
	Total   int                    `json:"total"`
	Items   []AllocationLookupItem `json:"items"`
}

// AllocationLookup localiza em qual cliente um material está, partindo de
// RG ou etiqueta. O par incompleto é resolvido pelo cadastro antes do
// cruzamento.
func (es *EquipmentService) AllocationLookup(rgCode, tagCode string) (*AllocationLookupResult, error) {
	normalizedRG := strVal(optionalCode(rgCode))
	normalizedTag := strVal(optionalCode(tagCode))
	if normalizedRG == "" && normalizedTag == "" {
		return nil, &ValidationError{Msg: "Informe RG ou etiqueta para consulta."}
	}

	resolvedRG := normalizedRG
	resolvedTag := normalizedTag

	if resolvedTag != "" && resolvedRG == "" {
		var row models.Equipment
		err := es.db.Where("UPPER(COALESCE(tag_code, '')) = ?", resolvedTag).
			Order("id DESC").First(&row).Error
		if err == nil {
			resolvedRG = strVal(optionalCode(strVal(row.RGCode)))
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	if resolvedTag == "" && resolvedRG != "" {
		var row models.Equipment
		err := es.db.Where("UPPER(COALESCE(rg_code, '')) = ?", resolvedRG).
			Order("id DESC").First(&row).Error
		if err == nil {
			resolvedTag = strVal(optionalCode(strVal(row.TagCode)))
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	result := &AllocationLookupResult{
		RGCode:  resolvedRG,
		TagCode: resolvedTag,
		Items:   []AllocationLookupItem{},
	}
	targetTokens := EquipmentLookupTokens(resolvedRG, resolvedTag)
	if len(targetTokens) == 0 {
		return result, nil
	}

	query, err := es.allocatedRefrigeratorQuery()
	if err != nil {
		return nil, err
	}
	var rows []allocatedRefrigeratorRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	var matched []allocatedRefrigeratorRow
	for _, row := range rows {
		if targetTokens.Intersects(CodeLookupTokens(row.RGCode)) {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		di := parseInventoryIssueDate(matched[i].InvoiceIssueDate, matched[i].CreatedAt)
		dj := parseInventoryIssueDate(matched[j].InvoiceIssueDate, matched[j].CreatedAt)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		ni := strings.ToLower(NormalizeSpaces(matched[i].NomeFantasia))
		nj := strings.ToLower(NormalizeSpaces(matched[j].NomeFantasia))
		if ni != nj {
			return ni > nj
		}
		return matched[i].InventoryItemID > matched[j].InventoryItemID
	})

	for _, row := range matched {
		result.Items = append(result.Items, AllocationLookupItem{
			InventoryItemID:  row.InventoryItemID,
			RGCode:           NormalizeSpaces(row.RGCode),
			TagCode:          resolvedTag,
			ClientCode:       NormalizeSpaces(row.ClientCode),
			NomeFantasia:     NormalizeSpaces(row.NomeFantasia),
			Setor:            NormalizeSpaces(row.Setor),
			ModelName:        NormalizeSpaces(row.ModelName),
			InvoiceIssueDate: NormalizeSpaces(row.InvoiceIssueDate),
		})
	}
	result.Total = len(result.Items)
	return result, nil
}

var (
	monthOptionRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearOptionRe  = regexp.MustCompile(`^\d{4}$`)
)

func normalizeMonthFilter(value string) (string, error) {
	text := NormalizeSpaces(value)
	if text == "" {
		return "", nil
	}
	if !monthOptionRe.MatchString(text) {
		return "", &ValidationError{Msg: "Mês inválido. Use formato YYYY-MM."}
	}
	year := ParseInteger(text[:4])
	month := ParseInteger(text[5:7])
	if year < 1900 || year > 2300 || month < 1 || month > 12 {
		return "", &ValidationError{Msg: "Mês inválido. Use formato YYYY-MM."}
	}
	return text, nil
}

func normalizeYearFilter(value string) (string, error) {
	text := NormalizeSpaces(value)
	if text == "" {
		return "", nil
	}
	if !yearOptionRe.MatchString(text) {
		return "", &ValidationError{Msg: "Ano inválido. Use formato YYYY."}
	}
	year := ParseInteger(text)
	if year < 1900 || year > 2300 {
		return "", &ValidationError{Msg: "Ano inválido. Use formato YYYY."}
	}
	return text, nil
}

// InventoryMaterialMonthOptions lista os meses (YYYY-MM) presentes nas
// notas do lote corrente, mais recentes primeiro
func (es *EquipmentService) InventoryMaterialMonthOptions() ([]string, error) {
	query := es.db.Model(&models.CatalogInventoryItem{}).
		Select("invoice_issue_date", "created_at")
	query, err := es.applyInventoryBaseFilter(query)
	if err != nil {
		return nil, err
	}
	var rows []models.CatalogInventoryItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		month := parseInventoryIssueDate(row.InvoiceIssueDate, row.CreatedAt).Format("2006-01")
		seen[month] = true
	}
	options := make([]string, 0, len(seen))
	for month := range seen {
		options = append(options, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(options)))
	return options, nil
}

// InventoryMaterialItem é uma linha de material em campo, já classificada
type InventoryMaterialItem struct {
	InventoryItemID  int    `json:"inventory_item_id"`
	ItemType         string `json:"item_type"`
	ModelName        string `json:"model_name"`
	RGCode           string `json:"rg_code"`
	ClientCode       string `json:"client_code"`
	NomeFantasia     string `json:"nome_fantasia"`
	Quantity         int    `json:"quantity"`
	ComodatoNumber   string `json:"comodato_number"`
	InvoiceIssueDate string `json:"invoice_issue_date"`
	InvoiceMonth     string `json:"invoice_month"`

	sortDate time.Time
}

// InventoryMaterialList é a resposta paginada de materiais em campo
type InventoryMaterialList struct {
	Items []InventoryMaterialItem `json:"items"`
	Page  PageMeta                `json:"page"`
}

// InventoryMaterialFilter são os filtros da listagem de materiais
type InventoryMaterialFilter struct {
	Group    string
	Query    string
	Year     string
	Month    string
	ItemType string
	Sort     string
	Limit    int
	Offset   int
}

func matchesInventorySearch(search string, item InventoryMaterialItem) bool {
	normalizedSearch := NormalizeLookupText(search)
	searchDigits := DigitsOnly(search)
	if normalizedSearch == "" && searchDigits == "" {
		return true
	}

	haystackParts := []string{
		item.ItemType,
		item.ModelName,
		item.RGCode,
		item.ClientCode,
		item.NomeFantasia,
		item.ComodatoNumber,
	}
	var normalized []string
	for _, part := range haystackParts {
		if part != "" {
			normalized = append(normalized, NormalizeLookupText(part))
		}
	}
	if normalizedSearch != "" && strings.Contains(strings.Join(normalized, " "), normalizedSearch) {
		return true
	}
	if searchDigits == "" {
		return false
	}

	numericCandidates := []string{
		DigitsOnly(item.ClientCode),
		DigitsOnly(item.RGCode),
		DigitsOnly(item.ModelName),
		DigitsOnly(item.ComodatoNumber),
	}
	for _, candidate := range numericCandidates {
		if candidate != "" && strings.Contains(candidate, searchDigits) {
			return true
		}
	}
	return false
}

// ListInventoryMaterials lista o que está em campo no lote corrente, com
// filtros por grupo, tipo, período e busca livre. Linhas com tipo "outro"
// são reclassificadas pela descrição quando possível.
func (es *EquipmentService) ListInventoryMaterials(filter InventoryMaterialFilter) (*InventoryMaterialList, error) {
	normalizedGroup := NormalizeLookupText(filter.Group)
	if normalizedGroup == "" {
		normalizedGroup = "todos"
	}
	if normalizedGroup != "todos" && normalizedGroup != ItemTypeRefrigerador && normalizedGroup != "outros" {
		return nil, &ValidationError{Msg: "Grupo de materiais inválido."}
	}
	normalizedSort, err := normalizeSort(filter.Sort)
	if err != nil {
		return nil, err
	}
	normalizedYear, err := normalizeYearFilter(filter.Year)
	if err != nil {
		return nil, err
	}
	normalizedMonth, err := normalizeMonthFilter(filter.Month)
	if err != nil {
		return nil, err
	}
	if normalizedMonth != "" && normalizedYear != "" && !strings.HasPrefix(normalizedMonth, normalizedYear+"-") {
		return nil, &ValidationError{Msg: "Mês e ano conflitantes."}
	}
	normalizedItemType := ""
	if NormalizeSpaces(filter.ItemType) != "" {
		normalizedItemType, err = NormalizeMaterialType(filter.ItemType)
		if err != nil {
			return nil, err
		}
	}
	search := NormalizeSpaces(filter.Query)

	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query, err := es.allocatedRefrigeratorQuery()
	if err != nil {
		return nil, err
	}
	var rows []allocatedRefrigeratorRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	var items []InventoryMaterialItem
	for _, row := range rows {
		parsedDate := parseInventoryIssueDate(row.InvoiceIssueDate, row.CreatedAt)
		invoiceMonth := parsedDate.Format("2006-01")
		if normalizedYear != "" && invoiceMonth[:4] != normalizedYear {
			continue
		}
		if normalizedMonth != "" && invoiceMonth != normalizedMonth {
			continue
		}

		storedBucket := MaterialTypeBucket(NormalizeSpaces(row.ItemType))
		inferredBucket := MaterialTypeBucket(ClassifyItemType(NormalizeSpaces(row.ModelName)))
		resolvedType := storedBucket
		if storedBucket == ItemTypeOutro && inferredBucket != ItemTypeOutro {
			resolvedType = inferredBucket
		}

		item := InventoryMaterialItem{
			InventoryItemID:  row.InventoryItemID,
			ItemType:         resolvedType,
			ModelName:        NormalizeSpaces(row.ModelName),
			RGCode:           NormalizeSpaces(row.RGCode),
			ClientCode:       NormalizeSpaces(row.ClientCode),
			NomeFantasia:     NormalizeSpaces(row.NomeFantasia),
			Quantity:         row.Quantity,
			ComodatoNumber:   NormalizeSpaces(row.ComodatoNumber),
			InvoiceIssueDate: NormalizeSpaces(row.InvoiceIssueDate),
			InvoiceMonth:     invoiceMonth,
			sortDate:         parsedDate,
		}

		if normalizedGroup == ItemTypeRefrigerador && item.ItemType != ItemTypeRefrigerador {
			continue
		}
		if normalizedGroup == "outros" && item.ItemType == ItemTypeRefrigerador {
			continue
		}
		if normalizedItemType != "" && item.ItemType != normalizedItemType {
			continue
		}
		if search != "" && !matchesInventorySearch(search, item) {
			continue
		}
		items = append(items, item)
	}

	newest := normalizedSort == "newest"
	sort.Slice(items, func(i, j int) bool {
		less := false
		if !items[i].sortDate.Equal(items[j].sortDate) {
			less = items[i].sortDate.Before(items[j].sortDate)
		} else {
			ni := strings.ToLower(items[i].ModelName)
			nj := strings.ToLower(items[j].ModelName)
			if ni != nj {
				less = ni < nj
			} else {
				less = items[i].InventoryItemID < items[j].InventoryItemID
			}
		}
		if newest {
			return !less
		}
		return less
	})

	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &InventoryMaterialList{
		Items: items[offset:end],
		Page:  buildPageMeta(limit, offset, total),
	}, nil
}
