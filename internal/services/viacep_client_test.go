package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/config"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/utils"
)

func TestNormalizeCEP(t *testing.T) {
	assert.Equal(t, "11900-000", NormalizeCEP("11900000"))
	assert.Equal(t, "11900-000", NormalizeCEP(" 11.900-000 "))
	assert.Equal(t, "", NormalizeCEP("1190000"))
	assert.Equal(t, "", NormalizeCEP(""))
	assert.Equal(t, "", NormalizeCEP("abc"))
}

func TestLookupCEPByAddress(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/ws/SP/Registro/Rua%20Arapongal/json/", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"cep": "11900-000"}]`))
	}))
	defer server.Close()

	client := NewViaCEPClient(server.URL, 2*time.Second, utils.NewMemoryCache())

	cep := client.LookupCEPByAddress("Registro", "Rua Arapongal 40 fundos")
	assert.Equal(t, "11900-000", cep)

	// Segunda consulta igual sai do cache
	cep = client.LookupCEPByAddress("Registro", "Rua Arapongal 40")
	assert.Equal(t, "11900-000", cep)
	assert.Equal(t, int64(1), calls.Load())

	assert.Equal(t, "", client.LookupCEPByAddress("", "Rua Arapongal"))
	assert.Equal(t, "", client.LookupCEPByAddress("Registro", ""))
	assert.Equal(t, int64(1), calls.Load())
}

func TestLookupCEPPathWithDefaultBaseURL(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.EscapedPath())
		w.Write([]byte(`[{"cep": "11900-000"}]`))
	}))
	defer server.Close()

	t.Setenv("VIACEP_BASE_URL", "")
	cfg := config.Load()
	require.Equal(t, "https://viacep.com.br", cfg.ViaCEPBaseURL)

	// Mesma base da configuração padrão, só com o host trocado
	base := strings.Replace(cfg.ViaCEPBaseURL, "https://viacep.com.br", server.URL, 1)
	client := NewViaCEPClient(base, 2*time.Second, utils.NewMemoryCache())
	require.Equal(t, "11900-000", client.LookupCEPByAddress("Registro", "Rua Arapongal 40"))
	assert.Equal(t, "/ws/SP/Registro/Rua%20Arapongal/json/", path.Load())

	// Base antiga terminada em /ws não duplica o caminho
	legacy := NewViaCEPClient(server.URL+"/ws", 2*time.Second, utils.NewMemoryCache())
	require.Equal(t, "11900-000", legacy.LookupCEPByAddress("Registro", "Rua Arapongal 40"))
	assert.Equal(t, "/ws/SP/Registro/Rua%20Arapongal/json/", path.Load())
}

func TestLookupCEPFailuresDegradeToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/SP/Registro/Rua Quebrada/json/":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"erro": true}`))
		}
	}))
	defer server.Close()

	client := NewViaCEPClient(server.URL, 2*time.Second, utils.NewMemoryCache())

	assert.Equal(t, "", client.LookupCEPByAddress("Registro", "Rua Quebrada"))
	assert.Equal(t, "", client.LookupCEPByAddress("Registro", "Rua Torta"))

	// Servidor fora do ar também não propaga erro
	down := NewViaCEPClient("http://127.0.0.1:1", 500*time.Millisecond, utils.NewMemoryCache())
	assert.Equal(t, "", down.LookupCEPByAddress("Registro", "Rua Qualquer"))
}

func TestEnsureClientCEP(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"cep": "11930-000"}]`))
	}))
	defer server.Close()

	client := NewViaCEPClient(server.URL, 2*time.Second, utils.NewMemoryCache())

	// CEP presente só é normalizado, sem consulta
	record := ClientRecord{Cep: "11900000", Cidade: "Registro", Endereco: "Rua A"}
	client.EnsureClientCEP(&record)
	assert.Equal(t, "11900-000", record.Cep)
	assert.Equal(t, int64(0), calls.Load())

	record = ClientRecord{Cidade: "Pariquera", Endereco: "Rua B 12"}
	client.EnsureClientCEP(&record)
	assert.Equal(t, "11930-000", record.Cep)
	require.Equal(t, int64(1), calls.Load())
}
