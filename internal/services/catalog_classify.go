package services

import (
	"regexp"
	"strings"
)

// Tipos de item reconhecidos no inventário 02.02.20
const (
	ItemTypeRefrigerador     = "refrigerador"
	ItemTypeGarrafeira       = "garrafeira"
	ItemTypeVasilhameCaixa   = "vasilhame_caixa"
	ItemTypeVasilhameGarrafa = "vasilhame_garrafa"
	ItemTypeCaixaTermica     = "caixa_termica"
	ItemTypeJogoMesa         = "jogo_mesa"
	ItemTypeOutro            = "outro"
)

var itemTypeLabels = map[string]string{
	ItemTypeRefrigerador:     "Refrigerador",
	ItemTypeGarrafeira:       "Garrafeira",
	ItemTypeVasilhameCaixa:   "Vasilhame (Caixa)",
	ItemTypeVasilhameGarrafa: "Vasilhame (Garrafa)",
	ItemTypeCaixaTermica:     "Caixa térmica",
	ItemTypeJogoMesa:         "Jogo de mesa",
	ItemTypeOutro:            "Outro",
}

// ItemTypeLabel devolve o rótulo de exibição do tipo (desconhecido -> Outro)
func ItemTypeLabel(itemType string) string {
	if label, ok := itemTypeLabels[itemType]; ok {
		return label
	}
	return itemTypeLabels[ItemTypeOutro]
}

// classifyRule é um par (predicado, resultado). As regras formam uma cadeia
// de prioridade fixa avaliada em ordem sobre a descrição normalizada; a
// primeira que casar decide o tipo.
type classifyRule struct {
	matches  func(text string) bool
	itemType string
}

func containsAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, word := range words {
			if strings.Contains(text, word) {
				return true
			}
		}
		return false
	}
}

var classifyRules = []classifyRule{
	// "garrafeira" ganha de qualquer outra palavra-chave
	{containsAny("garrafeira"), ItemTypeGarrafeira},
	{containsAny("refrigerador", "geladeira", "frigobar", "cervejeira", "horizontal", "vertical", "mini"), ItemTypeRefrigerador},
	{containsAny("caixa", "cx ", "cx.", "engrad", "fardo"), ItemTypeVasilhameCaixa},
	{containsAny("garrafa", "gfa", "vasilhame"), ItemTypeVasilhameGarrafa},
}

// ClassifyItemType mapeia a descrição livre de um item para um dos baldes de
// tipo. Inferência por texto nunca falha: sem casamento, o tipo é "outro".
func ClassifyItemType(description string) string {
	text := NormalizeLookupText(description)
	for _, rule := range classifyRules {
		if rule.matches(text) {
			return rule.itemType
		}
	}
	return ItemTypeOutro
}

var (
	volume300Re     = regexp.MustCompile(`\b300\s*ml\b`)
	volume600Re     = regexp.MustCompile(`\b600\s*ml\b`)
	volume1LRe      = regexp.MustCompile(`\b(1|1000)\s*(l|lt|litro|litros)\b`)
	bottlesPerCrate = map[string]int{
		"300ml": 24,
		"600ml": 24,
		"1l":    12,
	}
)

// DetectVolumeKey identifica o tamanho do vasilhame citado na descrição
func DetectVolumeKey(description string) string {
	text := NormalizeLookupText(description)
	switch {
	case volume300Re.MatchString(text):
		return "300ml"
	case volume600Re.MatchString(text):
		return "600ml"
	case volume1LRe.MatchString(text):
		return "1l"
	}
	return ""
}

// BottlesForCrates converte caixas em garrafas pelo volume. ok=false quando
// o volume não tem fator de conversão conhecido.
func BottlesForCrates(volumeKey string, crates int) (bottles int, ok bool) {
	if crates <= 0 {
		return 0, true
	}
	perCrate, known := bottlesPerCrate[strings.ToLower(strings.TrimSpace(volumeKey))]
	if !known {
		return 0, false
	}
	return perCrate * crates, true
}

// materialTypeAliases é a tabela de vocabulário ampliado usada pelos painéis
// de equipamentos/materiais. Mantida separada da cadeia de classificação:
// aqui um alias desconhecido é erro quando usado como filtro explícito.
var materialTypeAliases = map[string]string{
	"refrigerador":      ItemTypeRefrigerador,
	"refrigeradores":    ItemTypeRefrigerador,
	"geladeira":         ItemTypeRefrigerador,
	"geladeiras":        ItemTypeRefrigerador,
	"frigobar":          ItemTypeRefrigerador,
	"frigorifico":       ItemTypeRefrigerador,
	"cervejeira":        ItemTypeRefrigerador,
	"caixa termica":     ItemTypeCaixaTermica,
	"caixa termicas":    ItemTypeCaixaTermica,
	"caixas termicas":   ItemTypeCaixaTermica,
	"cx termica":        ItemTypeCaixaTermica,
	"jogo mesa":         ItemTypeJogoMesa,
	"jogos mesa":        ItemTypeJogoMesa,
	"jogo de mesa":      ItemTypeJogoMesa,
	"jogos de mesa":     ItemTypeJogoMesa,
	"garrafeira":        ItemTypeGarrafeira,
	"vasilhame caixa":   ItemTypeVasilhameCaixa,
	"vasilhame garrafa": ItemTypeVasilhameGarrafa,
	"chopeira":          ItemTypeOutro,
	"choppeira":         ItemTypeOutro,
	"balde":             ItemTypeOutro,
	"baldes":            ItemTypeOutro,
	"testeira":          ItemTypeOutro,
	"compressor":        ItemTypeOutro,
	"totem":             ItemTypeOutro,
	"cooler carrinho":   ItemTypeOutro,
	"coller carrinho":   ItemTypeOutro,
	"inflavel":          ItemTypeOutro,
	"empilhadeira":      ItemTypeOutro,
	"calca":             ItemTypeOutro,
	"cartucho":          ItemTypeOutro,
	"ombrelone":         ItemTypeOutro,
	"ombrellone":        ItemTypeOutro,
	"camera fria":       ItemTypeOutro,
	"camara fria":       ItemTypeOutro,
	"dispensador":       ItemTypeOutro,
	"outro":             ItemTypeOutro,
	"outros":            ItemTypeOutro,
}

// MaterialTypeBucket agrupa um tipo/alias nos baldes dos painéis. Os três
// tipos de vasilhame são exibidos juntos sob "garrafeira".
func MaterialTypeBucket(value string) string {
	mapped := materialTypeAliases[NormalizeLookupText(value)]
	switch mapped {
	case ItemTypeVasilhameCaixa, ItemTypeVasilhameGarrafa, ItemTypeGarrafeira:
		return ItemTypeGarrafeira
	case ItemTypeRefrigerador, ItemTypeCaixaTermica, ItemTypeJogoMesa:
		return mapped
	}
	return ItemTypeOutro
}

// NormalizeMaterialType valida um filtro explícito de tipo de material.
// Alias desconhecido é erro de validação (diferente da inferência livre).
func NormalizeMaterialType(value string) (string, error) {
	normalized := NormalizeLookupText(value)
	if _, ok := materialTypeAliases[normalized]; !ok {
		return "", &ValidationError{Msg: "Tipo de material inválido."}
	}
	return MaterialTypeBucket(normalized), nil
}
