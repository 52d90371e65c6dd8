package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/utils"
)

// ViaCEPClient preenche CEPs faltantes consultando o ViaCEP por endereço.
// O serviço é melhoria opcional: qualquer falha (timeout, resposta
// inesperada) degrada silenciosamente para CEP vazio.
type ViaCEPClient struct {
	baseURL string
	client  *http.Client
	cache   utils.Cache
	uf      string
}

func NewViaCEPClient(baseURL string, timeout time.Duration, cache utils.Cache) *ViaCEPClient {
	if baseURL == "" {
		baseURL = "https://viacep.com.br"
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if cache == nil {
		cache = utils.NewMemoryCache()
	}
	// O caminho /ws/ é montado na consulta; aceita base com ou sem ele
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/ws")
	return &ViaCEPClient{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		uf:      "SP",
	}
}

var (
	houseNumberRe = regexp.MustCompile(`\s+\d+.*$`)
)

// NormalizeCEP formata um CEP como 00000-000; qualquer coisa sem
// exatamente 8 dígitos vira vazio
func NormalizeCEP(value string) string {
	digits := DigitsOnly(value)
	if len(digits) != 8 {
		return ""
	}
	return digits[:5] + "-" + digits[5:]
}

// streetForLookup remove número e complemento do logradouro; a busca do
// ViaCEP funciona melhor só com o nome da rua
func streetForLookup(value string) string {
	street := NormalizeSpaces(value)
	if street == "" {
		return ""
	}
	street = strings.TrimSpace(houseNumberRe.ReplaceAllString(street, ""))
	if len(street) > 80 {
		street = street[:80]
	}
	return street
}

type viaCEPEntry struct {
	Cep string `json:"cep"`
}

// LookupCEPByAddress consulta o ViaCEP por UF/cidade/rua e devolve o
// primeiro CEP válido da resposta, ou "" quando nada foi encontrado
func (vc *ViaCEPClient) LookupCEPByAddress(cidade, endereco string) string {
	city := NormalizeSpaces(cidade)
	street := streetForLookup(endereco)
	if city == "" || street == "" {
		return ""
	}

	cacheKey := "viacep:" + NormalizeLookupText(vc.uf) + "|" + NormalizeLookupText(city) + "|" + NormalizeLookupText(street)
	if cached, ok := vc.cache.Get(cacheKey); ok {
		return cached
	}

	lookupURL := vc.baseURL + "/ws/" + url.PathEscape(vc.uf) + "/" + url.PathEscape(city) + "/" + url.PathEscape(street) + "/json/"
	resp, err := vc.client.Get(lookupURL)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	var entries []viaCEPEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return ""
	}

	for _, entry := range entries {
		if cep := NormalizeCEP(entry.Cep); cep != "" {
			vc.cache.Set(cacheKey, cep)
			return cep
		}
	}
	// Resposta válida sem CEP também entra no cache, para não repetir
	// a consulta a cada busca do mesmo cliente
	vc.cache.Set(cacheKey, "")
	return ""
}

// EnsureClientCEP normaliza o CEP do cliente e, quando ausente, tenta
// descobrir pelo endereço. O registro nunca fica pior do que entrou.
func (vc *ViaCEPClient) EnsureClientCEP(record *ClientRecord) {
	if normalized := NormalizeCEP(record.Cep); normalized != "" {
		record.Cep = normalized
		return
	}
	if auto := vc.LookupCEPByAddress(record.Cidade, record.Endereco); auto != "" {
		record.Cep = auto
	}
}
