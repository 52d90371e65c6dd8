package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// Importação em massa de refrigeradores por CSV. Cada linha vira um
// registro novo com status "novo"; duplicatas são descartadas em três
// níveis (dentro do arquivo, contra o cadastro e contra o 02.02.20).

var importCSVAliases = map[string][]string{
	"tipo":     {"tipo", "type"},
	"modelo":   {"modelo", "model", "material", "descricao", "descrição"},
	"marca":    {"marca", "brand"},
	"voltagem": {"voltagem", "voltage"},
	"rg":       {"rg", "r.g", "r g"},
	"etiqueta": {"etiqueta", "tag", "tag_code"},
}

var importCSVFieldOrder = []string{"tipo", "modelo", "marca", "voltagem", "rg", "etiqueta"}

// BulkImportResult é o relatório final de uma importação
type BulkImportResult struct {
	TotalRows              int      `json:"total_rows"`
	ImportedCount          int      `json:"imported_count"`
	DuplicatedByRG         int      `json:"duplicated_by_rg"`
	DuplicatesInFile       int      `json:"duplicates_in_file"`
	DuplicatesInLedger     int      `json:"duplicates_in_020220"`
	DuplicatesInRegistry   int      `json:"duplicates_in_cadastro"`
	InvalidRows            int      `json:"invalid_rows"`
	IgnoredNonRefrigerator int      `json:"ignored_non_refrigerator"`
	Errors                 []string `json:"errors"`
}

const maxImportErrors = 30

func (r *BulkImportResult) addError(message string) {
	if len(r.Errors) < maxImportErrors {
		r.Errors = append(r.Errors, message)
	}
}

func resolveImportHeaders(headerMap map[string][]string) (map[string]string, error) {
	resolved := make(map[string]string, len(importCSVAliases))
	var missing []string
	for _, field := range importCSVFieldOrder {
		column, _ := pickColumn(headerMap, importCSVAliases[field], false, "")
		if column == "" {
			missing = append(missing, strings.ToUpper(field))
			continue
		}
		resolved[field] = column
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("Cabeçalho CSV inválido. Colunas obrigatórias não encontradas: %s.", strings.Join(missing, ", ")),
		}
	}
	return resolved, nil
}

// ImportRefrigeratorsCSV processa o CSV inteiro antes de gravar: só as
// linhas aprovadas entram, numa única transação. O relatório sai mesmo
// quando nenhuma linha foi importada.
func (es *EquipmentService) ImportRefrigeratorsCSV(raw []byte, filename string) (*BulkImportResult, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Msg: "Arquivo CSV vazio."}
	}

	rows, headerMap, err := readTabularRows(raw, filename)
	if err != nil {
		return nil, err
	}
	headers, err := resolveImportHeaders(headerMap)
	if err != nil {
		return nil, err
	}

	existingRGTokens := make(TokenSet)
	existingTags := make(map[string]bool)
	var registered []models.Equipment
	if err := es.db.Select("rg_code", "tag_code").Find(&registered).Error; err != nil {
		return nil, err
	}
	for _, row := range registered {
		existingRGTokens = existingRGTokens.Union(CodeLookupTokens(strVal(row.RGCode)))
		if tag := strVal(optionalCode(strVal(row.TagCode))); tag != "" {
			existingTags[tag] = true
		}
	}

	ledgerTokens, err := es.AllocatedLedgerTokens()
	if err != nil {
		return nil, err
	}

	result := &BulkImportResult{Errors: []string{}}
	seenRGTokens := make(TokenSet)
	seenTags := make(map[string]bool)
	var pending []models.Equipment

	for index, row := range rows {
		lineNumber := index + 2

		empty := true
		for _, value := range row {
			if NormalizeSpaces(value) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		result.TotalRows++

		rawTipo := NormalizeSpaces(row[headers["tipo"]])
		if rawTipo != "" {
			resolvedType, err := NormalizeCategory(rawTipo)
			if err != nil {
				result.InvalidRows++
				result.addError(fmt.Sprintf("Linha %d: tipo inválido (%s).", lineNumber, rawTipo))
				continue
			}
			if resolvedType != "refrigerador" {
				result.IgnoredNonRefrigerator++
				continue
			}
		}

		modelName := NormalizeSpaces(row[headers["modelo"]])
		brand := NormalizeSpaces(row[headers["marca"]])
		rawVoltage := NormalizeSpaces(row[headers["voltagem"]])
		rgCode := optionalCode(row[headers["rg"]])
		tagCode := optionalCode(row[headers["etiqueta"]])

		if modelName == "" || brand == "" || rawVoltage == "" || rgCode == nil {
			result.InvalidRows++
			result.addError(fmt.Sprintf("Linha %d: informe Tipo/Modelo/Marca/Voltagem/RG para importar refrigerador.", lineNumber))
			continue
		}

		voltage, err := NormalizeVoltage(rawVoltage)
		if err != nil {
			result.InvalidRows++
			result.addError(fmt.Sprintf("Linha %d: voltagem inválida (%s).", lineNumber, rawVoltage))
			continue
		}

		rgTokens := CodeLookupTokens(*rgCode)
		if len(rgTokens) == 0 {
			result.InvalidRows++
			result.addError(fmt.Sprintf("Linha %d: RG inválido.", lineNumber))
			continue
		}
		equipmentTokens := EquipmentLookupTokens(strVal(rgCode), strVal(tagCode))

		if seenRGTokens.Intersects(rgTokens) {
			result.DuplicatesInFile++
			result.DuplicatedByRG++
			continue
		}
		if existingRGTokens.Intersects(rgTokens) {
			result.DuplicatesInRegistry++
			result.DuplicatedByRG++
			continue
		}
		if ledgerTokens.Intersects(equipmentTokens) {
			result.DuplicatesInLedger++
			result.DuplicatedByRG++
			continue
		}
		if tagCode != nil && (existingTags[*tagCode] || seenTags[*tagCode]) {
			result.InvalidRows++
			result.addError(fmt.Sprintf("Linha %d: etiqueta já cadastrada (%s).", lineNumber, *tagCode))
			continue
		}

		pending = append(pending, models.Equipment{
			Category:  "refrigerador",
			ModelName: modelName,
			Brand:     brand,
			Quantity:  1,
			Voltage:   voltage,
			RGCode:    rgCode,
			TagCode:   tagCode,
			Status:    EquipmentStatusNovo,
		})
		result.ImportedCount++
		seenRGTokens = seenRGTokens.Union(rgTokens)
		if tagCode != nil {
			seenTags[*tagCode] = true
		}
	}

	if len(pending) > 0 {
		if err := es.db.CreateInBatches(pending, 500).Error; err != nil {
			return nil, &ConflictError{
				Msg: "Conflito de unicidade durante a importação. Verifique RG ou etiqueta duplicados.",
			}
		}
		log.Printf("✅ Importação de refrigeradores: %d de %d linhas gravadas", result.ImportedCount, result.TotalRows)
	}

	return result, nil
}
