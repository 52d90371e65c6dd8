package services

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Campos do formulário de cliente, na ordem canônica dos relatórios
var clientFormFields = []string{
	"client_code",
	"nome_fantasia",
	"razao_social",
	"cnpj_cpf",
	"setor",
	"telefone",
	"endereco",
	"bairro",
	"cidade",
	"cep",
	"inscricao_estadual",
	"responsavel_cliente",
	"responsavel_retirada",
	"responsavel_conferencia",
}

// Aliases aceitos para cada campo do CSV 01.20.11. Os cabeçalhos reais dos
// relatórios variam entre exportações, então a resolução é por lista, na
// ordem de preferência.
var clientFieldAliases = map[string][]string{
	"client_code": {
		"codigo",
		"codigo cliente",
		"código do cliente",
		"cod cliente",
		"cod_cliente",
		"código",
		"código cliente",
		"cliente",
	},
	"nome_fantasia": {"nome fantasia", "fantasia"},
	"razao_social":  {"razao social", "razão social", "razao"},
	"cnpj_cpf":      {"cnpj/cpf", "cnpj cpf", "cnpj", "cpf"},
	"setor": {
		"setor",
		"cod setor",
		"cod. setor",
		"codigo setor",
		"código setor",
		"secao",
		"seção",
		"canal",
	},
	"telefone":           {"telefone", "fone", "celular"},
	"endereco":           {"endereco", "endereço", "logradouro"},
	"bairro":             {"bairro"},
	"cidade":             {"cidade", "municipio", "município"},
	"cep":                {"cep"},
	"inscricao_estadual": {"inscricao estadual", "inscr est", "inscr. est.", "ie"},
	"responsavel_cliente": {
		"responsavel",
		"responsável",
		"responsavel pdv",
		"responsavel loja",
	},
	"responsavel_retirada":    {"responsavel retirada"},
	"responsavel_conferencia": {"responsavel conferencia"},
}

var inventoryAliases = map[string][]string{
	"client_code": clientFieldAliases["client_code"],
	"description": {
		"descricao",
		"descrição",
		"material",
		"produto",
		"item",
		"nome produto",
		"equipamento",
	},
	"baixados": {"baixados", "baixado", "qtd baixados", "qtde baixados", "saldo baixados"},
	"saldo":    {"saldo"},
	"rg": {
		"nro serie mercadoria",
		"numero serie mercadoria",
		"rg",
		"numero rg",
		"n rg",
		"serial",
		"serie",
		"identificador",
	},
	"comodato_number": {"nro comodato", "numero comodato", "n comodat", "nr comodato"},
	"issue_date":      {"data emissao", "data emissão", "emissao", "emissão"},
	"product_code":    {"codigo produto", "cod produto", "material codigo", "codigo material"},
}

var rgFallbackAliases = []string{"controla nr serie", "controla nr. serie", "controla n serie"}

// ClientRecord é uma linha do cadastro 01.20.11 já normalizada
type ClientRecord struct {
	ClientCode             string `json:"client_code"`
	NomeFantasia           string `json:"nome_fantasia"`
	RazaoSocial            string `json:"razao_social"`
	CnpjCpf                string `json:"cnpj_cpf"`
	Setor                  string `json:"setor"`
	Telefone               string `json:"telefone"`
	Endereco               string `json:"endereco"`
	Bairro                 string `json:"bairro"`
	Cidade                 string `json:"cidade"`
	Cep                    string `json:"cep"`
	InscricaoEstadual      string `json:"inscricao_estadual"`
	ResponsavelCliente     string `json:"responsavel_cliente"`
	ResponsavelRetirada    string `json:"responsavel_retirada"`
	ResponsavelConferencia string `json:"responsavel_conferencia"`
}

func (c *ClientRecord) fieldRef(name string) *string {
	switch name {
	case "client_code":
		return &c.ClientCode
	case "nome_fantasia":
		return &c.NomeFantasia
	case "razao_social":
		return &c.RazaoSocial
	case "cnpj_cpf":
		return &c.CnpjCpf
	case "setor":
		return &c.Setor
	case "telefone":
		return &c.Telefone
	case "endereco":
		return &c.Endereco
	case "bairro":
		return &c.Bairro
	case "cidade":
		return &c.Cidade
	case "cep":
		return &c.Cep
	case "inscricao_estadual":
		return &c.InscricaoEstadual
	case "responsavel_cliente":
		return &c.ResponsavelCliente
	case "responsavel_retirada":
		return &c.ResponsavelRetirada
	case "responsavel_conferencia":
		return &c.ResponsavelConferencia
	}
	return nil
}

// Field lê um campo pelo nome canônico (nome desconhecido -> "")
func (c *ClientRecord) Field(name string) string {
	if ref := c.fieldRef(name); ref != nil {
		return *ref
	}
	return ""
}

// SetField grava um campo pelo nome canônico; nomes desconhecidos são ignorados
func (c *ClientRecord) SetField(name, value string) {
	if ref := c.fieldRef(name); ref != nil {
		*ref = value
	}
}

// InventoryRecord é uma linha em aberto do relatório 02.02.20
type InventoryRecord struct {
	Description    string
	OpenQuantity   int
	ItemType       string
	RG             string
	ComodatoNumber string
	IssueDate      string
	VolumeKey      string
	SourceBaixados int
	ProductCode    string
	// Dados cadastrais presentes na própria linha do 02.02.20, usados
	// para preencher clientes que não aparecem no 01.20.11
	ClientSnapshot ClientRecord
}

var (
	plainIntRe = regexp.MustCompile(`^[-+]?\d+$`)
	digitRunRe = regexp.MustCompile(`[-+]?\d+`)
)

// ParseInteger interpreta quantidades vindas dos relatórios, tolerando
// separador de milhar, vírgula decimal e lixo ao redor. Nunca falha:
// sem dígito algum, o valor é 0.
func ParseInteger(value string) int {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0
	}

	compact := strings.ReplaceAll(raw, " ", "")
	if plainIntRe.MatchString(compact) {
		n, err := strconv.ParseInt(compact, 10, 64)
		if err == nil {
			return int(n)
		}
	}

	token := compact
	hasComma := strings.Contains(token, ",")
	hasDot := strings.Contains(token, ".")
	switch {
	case hasComma && hasDot:
		// Formato brasileiro: ponto de milhar, vírgula decimal
		token = strings.ReplaceAll(token, ".", "")
		token = strings.ReplaceAll(token, ",", ".")
	case hasComma:
		parts := strings.SplitN(token, ",", 2)
		if len(parts[1]) == 3 {
			token = strings.ReplaceAll(token, ",", "")
		} else {
			token = parts[0] + "." + parts[1]
		}
	case hasDot && strings.Count(token, ".") > 1:
		token = strings.ReplaceAll(token, ".", "")
	}

	if dec, err := decimal.NewFromString(token); err == nil {
		return int(dec.IntPart())
	}

	stripped := strings.NewReplacer(".", "", ",", "").Replace(token)
	if match := digitRunRe.FindString(stripped); match != "" {
		n, err := strconv.ParseInt(match, 10, 64)
		if err == nil {
			return int(n)
		}
	}
	return 0
}

// decodeTabularBytes converte o arquivo para UTF-8. Os relatórios chegam
// em UTF-8 (com ou sem BOM), Windows-1252 ou Latin-1, dependendo de quem
// exportou.
func decodeTabularBytes(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, _, err := transform.Bytes(cm.NewDecoder(), raw)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}
	return "", &DecodeError{Msg: "Não foi possível ler o CSV. Salve o arquivo em UTF-8 ou ANSI e tente novamente."}
}

// detectDelimiter conta os candidatos nos primeiros 4KB. Empate entre
// vírgula e ponto-e-vírgula fica com ponto-e-vírgula, o padrão dos
// relatórios exportados em pt-BR.
func detectDelimiter(text string) rune {
	sample := text
	if len(sample) > 4000 {
		sample = sample[:4000]
	}

	semicolons := strings.Count(sample, ";")
	commas := strings.Count(sample, ",")
	tabs := strings.Count(sample, "\t")
	pipes := strings.Count(sample, "|")

	delimiter := ';'
	maxCount := semicolons
	if commas > maxCount {
		maxCount = commas
		delimiter = ','
	}
	if tabs > maxCount {
		maxCount = tabs
		delimiter = '\t'
	}
	if pipes > maxCount {
		delimiter = '|'
	}
	return delimiter
}

func readCSVRecords(raw []byte) ([][]string, error) {
	text, err := decodeTabularBytes(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("⚠️ Linha de CSV ilegível, pulando: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSXRecords(raw []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Msg: "Não foi possível abrir a planilha. Verifique o arquivo enviado."}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Msg: "Planilha sem abas."}
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{Msg: "Não foi possível ler a planilha."}
	}
	return records, nil
}

// readTabularRows lê um CSV ou XLSX e devolve as linhas como mapas
// cabeçalho->valor. Cabeçalhos duplicados (ex.: duas colunas "CNPJ")
// recebem sufixo estável __2, __3... e o headerMap guarda, por cabeçalho
// normalizado, todas as colunas que o carregam.
func readTabularRows(raw []byte, filename string) ([]map[string]string, map[string][]string, error) {
	var records [][]string
	var err error

	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		records, err = readXLSXRecords(raw)
	} else {
		records, err = readCSVRecords(raw)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, &ValidationError{Msg: "CSV sem cabeçalho. Verifique o arquivo enviado."}
	}

	seen := make(map[string]int)
	uniqueHeaders := make([]string, 0, len(records[0]))
	headerMap := make(map[string][]string)
	for _, rawName := range records[0] {
		baseName := strings.TrimSpace(strings.Trim(rawName, "\"'\t"))
		if baseName == "" {
			baseName = "coluna"
		}
		seen[baseName]++
		uniqueName := baseName
		if seen[baseName] > 1 {
			uniqueName = baseName + "__" + strconv.Itoa(seen[baseName])
		}
		uniqueHeaders = append(uniqueHeaders, uniqueName)
		normalized := NormalizeHeader(baseName)
		headerMap[normalized] = append(headerMap[normalized], uniqueName)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(uniqueHeaders))
		for idx, header := range uniqueHeaders {
			value := ""
			if idx < len(record) {
				value = strings.TrimSpace(record[idx])
			}
			row[header] = value
		}
		rows = append(rows, row)
	}
	return rows, headerMap, nil
}

// pickColumn resolve uma lista de aliases para o nome real da coluna no
// arquivo. Com required=true a ausência vira erro 422.
func pickColumn(headerMap map[string][]string, aliases []string, required bool, contextLabel string) (string, error) {
	for _, alias := range aliases {
		key := NormalizeHeader(alias)
		if columns, ok := headerMap[key]; ok && len(columns) > 0 {
			return columns[0], nil
		}
	}
	if required {
		label := contextLabel
		if label == "" && len(aliases) > 0 {
			label = aliases[0]
		}
		return "", &MissingColumnError{Field: label}
	}
	return "", nil
}

// normalizeDocument guarda só os dígitos relevantes de CNPJ/CPF: os 14
// finais para CNPJ, os 9 finais para CPF sem os zeros à esquerda do DV
func normalizeDocument(value string) string {
	digits := DigitsOnly(value)
	switch {
	case digits == "":
		return ""
	case len(digits) >= 14:
		return digits[len(digits)-14:]
	case len(digits) >= 9:
		return digits[len(digits)-9:]
	}
	return ""
}

func normalizeSetor(value string) string {
	digits := DigitsOnly(value)
	if digits == "" {
		return ""
	}
	if len(digits) > 3 {
		digits = digits[len(digits)-3:]
	}
	return digits
}

func normalizeClientField(field, value string) string {
	switch field {
	case "cnpj_cpf":
		return normalizeDocument(value)
	case "setor":
		return normalizeSetor(value)
	}
	return NormalizeSpaces(value)
}

func extractClientFromRow(row map[string]string, headerMap map[string][]string) ClientRecord {
	var record ClientRecord
	for field, aliases := range clientFieldAliases {
		column, _ := pickColumn(headerMap, aliases, false, "")
		if column == "" {
			continue
		}
		record.SetField(field, normalizeClientField(field, row[column]))
	}
	record.ClientCode = strings.TrimSpace(record.ClientCode)
	return record
}

// ParseClientsCSV lê o cadastro 01.20.11 e devolve os clientes indexados
// pelo código canônico. Linhas sem código são ignoradas; arquivo sem
// nenhum cliente válido é erro.
func ParseClientsCSV(raw []byte, filename string) (map[string]ClientRecord, error) {
	rows, headerMap, err := readTabularRows(raw, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ValidationError{Msg: "CSV 01.20.11 sem linhas de dados."}
	}

	codeCol, err := pickColumn(headerMap, clientFieldAliases["client_code"], true, "código do cliente")
	if err != nil {
		return nil, err
	}

	clients := make(map[string]ClientRecord)
	for _, row := range rows {
		rawCode := strings.TrimSpace(row[codeCol])
		code := CanonicalCode(rawCode)
		if code == "" {
			continue
		}
		record := extractClientFromRow(row, headerMap)
		if rawCode != "" {
			record.ClientCode = rawCode
		} else {
			record.ClientCode = code
		}
		clients[code] = record
	}

	if len(clients) == 0 {
		return nil, &ValidationError{Msg: "Nenhum cliente válido encontrado no CSV 01.20.11."}
	}
	return clients, nil
}

// ParseInventoryCSV lê o relatório 02.02.20 e devolve, por código canônico
// de cliente, as linhas com saldo em aberto (estritamente negativo).
// "baixados" tem precedência sobre "saldo" quando ambos existem. skipped
// conta as linhas descartadas por falta de código, saldo não-negativo ou
// descrição vazia.
func ParseInventoryCSV(raw []byte, filename string) (map[string][]InventoryRecord, int, error) {
	rows, headerMap, err := readTabularRows(raw, filename)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, &ValidationError{Msg: "CSV 02.02.20 sem linhas de dados."}
	}

	codeCol, err := pickColumn(headerMap, inventoryAliases["client_code"], true, "código do cliente")
	if err != nil {
		return nil, 0, err
	}
	descCol, err := pickColumn(headerMap, inventoryAliases["description"], true, "descrição do item")
	if err != nil {
		return nil, 0, err
	}
	baixadosCol, _ := pickColumn(headerMap, inventoryAliases["baixados"], false, "")
	saldoCol, _ := pickColumn(headerMap, inventoryAliases["saldo"], false, "")
	if baixadosCol == "" && saldoCol == "" {
		return nil, 0, &MissingColumnError{Field: "baixados ou saldo"}
	}
	rgCol, _ := pickColumn(headerMap, inventoryAliases["rg"], false, "")
	rgFallbackCol, _ := pickColumn(headerMap, rgFallbackAliases, false, "")
	comodatoCol, _ := pickColumn(headerMap, inventoryAliases["comodato_number"], false, "")
	issueDateCol, _ := pickColumn(headerMap, inventoryAliases["issue_date"], false, "")
	productCol, _ := pickColumn(headerMap, inventoryAliases["product_code"], false, "")

	result := make(map[string][]InventoryRecord)
	skipped := 0
	for _, row := range rows {
		rawCode := strings.TrimSpace(row[codeCol])
		code := CanonicalCode(rawCode)
		if code == "" {
			skipped++
			continue
		}

		openBalance := 0
		hasOpenBalance := false
		if baixadosCol != "" {
			if v := ParseInteger(row[baixadosCol]); v < 0 {
				openBalance = v
				hasOpenBalance = true
			}
		}
		if !hasOpenBalance && saldoCol != "" {
			if v := ParseInteger(row[saldoCol]); v < 0 {
				openBalance = v
				hasOpenBalance = true
			}
		}
		if !hasOpenBalance {
			skipped++
			continue
		}

		description := NormalizeSpaces(row[descCol])
		if description == "" {
			skipped++
			continue
		}

		rg := ""
		if rgCol != "" {
			rg = NormalizeSpaces(row[rgCol])
		}
		if rg == "" && rgFallbackCol != "" {
			rg = NormalizeSpaces(row[rgFallbackCol])
		}

		record := InventoryRecord{
			Description:    description,
			OpenQuantity:   -openBalance,
			ItemType:       ClassifyItemType(description),
			RG:             rg,
			VolumeKey:      DetectVolumeKey(description),
			SourceBaixados: openBalance,
			ClientSnapshot: extractClientFromRow(row, headerMap),
		}
		if comodatoCol != "" {
			record.ComodatoNumber = NormalizeSpaces(row[comodatoCol])
		}
		if issueDateCol != "" {
			record.IssueDate = NormalizeSpaces(row[issueDateCol])
		}
		if productCol != "" {
			record.ProductCode = NormalizeSpaces(row[productCol])
		}

		result[code] = append(result[code], record)
	}

	return result, skipped, nil
}
