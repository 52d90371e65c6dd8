package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRe    = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonDigitRe    = regexp.MustCompile(`\D+`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	headerJunkRe  = regexp.MustCompile(`[^a-z0-9]+`)
	leadingZeroRe = regexp.MustCompile(`^0+`)
)

// CanonicalCode normaliza um código de cliente para servir de chave de junção
// entre as duas planilhas: remove tudo que não é alfanumérico, coloca em
// maiúsculas e, quando o resultado é só dígitos, corta zeros à esquerda
// ("001001" e "1001" viram o mesmo código).
func CanonicalCode(value string) string {
	text := strings.TrimSpace(value)
	normalized := strings.ToUpper(nonAlnumRe.ReplaceAllString(text, ""))
	if normalized == "" {
		return ""
	}
	if nonDigitRe.MatchString(normalized) {
		return normalized
	}
	stripped := leadingZeroRe.ReplaceAllString(normalized, "")
	if stripped == "" {
		return "0"
	}
	return stripped
}

// NormalizeSpaces colapsa espaços internos e remove os das pontas
func NormalizeSpaces(value string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(value, " "))
}

// DigitsOnly devolve apenas os dígitos do valor
func DigitsOnly(value string) string {
	return nonDigitRe.ReplaceAllString(value, "")
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripAccents remove acentos por decomposição NFD (ç -> c, ã -> a, é -> e)
func stripAccents(value string) string {
	stripped, _, err := transform.String(accentStripper, value)
	if err != nil {
		return value
	}
	return stripped
}

// NormalizeLookupText normaliza texto livre para comparação: minúsculas, sem
// acentos, hífen/underscore viram espaço, espaços colapsados.
func NormalizeLookupText(value string) string {
	normalized := strings.ToLower(NormalizeSpaces(value))
	normalized = stripAccents(normalized)
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.ReplaceAll(normalized, "_", " ")
	return NormalizeSpaces(normalized)
}

// NormalizeHeader normaliza um nome de coluna para casar com a lista de
// aliases: tudo que não for letra/dígito vira espaço.
func NormalizeHeader(name string) string {
	normalized := stripAccents(strings.ToLower(strings.TrimSpace(name)))
	normalized = headerJunkRe.ReplaceAllString(normalized, " ")
	return NormalizeSpaces(normalized)
}

// TokenSet é um conjunto de representações normalizadas de um identificador
type TokenSet map[string]struct{}

func (s TokenSet) add(token string) {
	if token != "" {
		s[token] = struct{}{}
	}
}

// Union incorpora os tokens de outro conjunto e devolve o próprio conjunto
func (s TokenSet) Union(other TokenSet) TokenSet {
	for token := range other {
		s[token] = struct{}{}
	}
	return s
}

// Intersects informa se há pelo menos um token em comum
func (s TokenSet) Intersects(other TokenSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for token := range small {
		if _, ok := large[token]; ok {
			return true
		}
	}
	return false
}

// CodeLookupTokens deriva o conjunto de tokens de busca de um código (RG,
// etiqueta, série): valor em maiúsculas, versão compactada alfanumérica e
// versão só-dígitos. A comparação por interseção de conjuntos tolera
// pontuação, zeros à esquerda e séries digitadas só com números:
// "rg-001" e "RG001" caem no mesmo conjunto.
func CodeLookupTokens(value string) TokenSet {
	tokens := make(TokenSet)
	normalized := NormalizeSpaces(value)
	if normalized == "" {
		return tokens
	}
	upper := strings.ToUpper(normalized)
	tokens.add(upper)
	tokens.add(nonAlnumRe.ReplaceAllString(upper, ""))
	tokens.add(DigitsOnly(upper))
	return tokens
}

// EquipmentLookupTokens une os tokens do RG e da etiqueta de um equipamento
func EquipmentLookupTokens(rgCode, tagCode string) TokenSet {
	tokens := CodeLookupTokens(rgCode)
	tokens.Union(CodeLookupTokens(tagCode))
	return tokens
}
