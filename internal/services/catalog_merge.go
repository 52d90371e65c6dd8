package services

import "strings"

// Campos preenchidos à mão pela equipe durante a retirada. Nunca chegam
// pré-preenchidos ao formulário, mesmo quando os CSVs trazem valor.
var manualClientFields = []string{
	"telefone",
	"responsavel_cliente",
	"responsavel_retirada",
	"responsavel_conferencia",
}

// MergeClientsWithInventory completa o cadastro 01.20.11 com os dados
// cadastrais embutidos nas linhas do 02.02.20. O snapshot do inventário só
// preenche campo vazio, nunca sobrescreve; clientes que só existem no
// inventário ganham um registro novo a partir do snapshot.
func MergeClientsWithInventory(clients map[string]ClientRecord, inventory map[string][]InventoryRecord) map[string]ClientRecord {
	merged := make(map[string]ClientRecord, len(clients))
	for code, record := range clients {
		merged[code] = record
	}

	for code, items := range inventory {
		if len(items) == 0 {
			continue
		}
		snapshot := items[0].ClientSnapshot

		record, ok := merged[code]
		if !ok {
			record = ClientRecord{}
			if snapshot.ClientCode != "" {
				record.ClientCode = snapshot.ClientCode
			} else {
				record.ClientCode = code
			}
		}

		for _, field := range clientFormFields {
			current := strings.TrimSpace(record.Field(field))
			incoming := strings.TrimSpace(snapshot.Field(field))
			if current == "" && incoming != "" {
				record.SetField(field, incoming)
			}
		}
		merged[code] = record
	}

	return merged
}

// ClearManualClientFields zera os campos manuais antes de devolver um
// cliente para a tela de nova retirada
func ClearManualClientFields(record *ClientRecord) {
	for _, field := range manualClientFields {
		record.SetField(field, "")
	}
}
