package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

var testDBSeq atomic.Int64

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	users  *services.UserService
	tokens *TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:apitestdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	userService := services.NewUserService(db)
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db)
	orderService.SetCatalogService(catalogService)
	equipmentService := services.NewEquipmentService(db)
	equipmentService.SetCatalogService(catalogService)
	taskService := services.NewTaskService(db)
	logisticsService := services.NewLogisticsService(db, t.TempDir())

	tokens := NewTokenManager("segredo-de-teste")
	ctrl := Controllers{
		Auth:      NewAuthController(userService, tokens),
		Users:     NewUserController(userService),
		Catalog:   NewCatalogController(catalogService, orderService, 10),
		Equipment: NewEquipmentController(equipmentService, 10),
		Tasks:     NewTaskController(taskService),
		Logistics: NewLogisticsController(logisticsService),
	}
	router := SetupRouter(db, tokens, ctrl, t.TempDir())
	return &testEnv{router: router, db: db, users: userService, tokens: tokens}
}

func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	return recorder
}

func (env *testEnv) seedUser(t *testing.T, name, email, role string, permissions []string) (*models.User, string) {
	t.Helper()
	user, err := env.users.Create(name, email, "senha123", role, permissions)
	require.NoError(t, err)
	token, err := env.tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

func TestTokenManagerRoundTrip(t *testing.T) {
	tokens := NewTokenManager("chave-a")
	user := &models.User{ID: 7, Name: "Maria", Email: "maria@x", Role: services.RoleAdmin}

	signed, err := tokens.Issue(user)
	require.NoError(t, err)

	userID, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	// Assinado com outra chave não passa
	other := NewTokenManager("chave-b")
	_, err = other.Parse(signed)
	require.Error(t, err)

	_, err = tokens.Parse("nem-um-jwt")
	require.Error(t, err)
}

func TestHealthAndLogin(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	env.seedUser(t, "Maria", "maria@ribeirabeer.com.br", services.RoleAdmin, nil)

	recorder = env.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "maria@ribeirabeer.com.br", "password": "senha123",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var loginBody struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &loginBody))
	assert.Equal(t, "bearer", loginBody.TokenType)
	require.NotEmpty(t, loginBody.AccessToken)

	recorder = env.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "maria@ribeirabeer.com.br", "password": "errada",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = env.request(t, http.MethodGet, "/api/v1/auth/me", loginBody.AccessToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var me struct {
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &me))
	assert.Equal(t, "maria@ribeirabeer.com.br", me.Email)
	assert.Equal(t, services.RoleAdmin, me.Role)
	assert.Len(t, me.Permissions, len(services.PermissionDefinitions))
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = env.request(t, http.MethodGet, "/api/v1/tasks", "token-invalido", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Token de usuário removido deixa de valer
	ghost, token := env.seedUser(t, "Fantasma", "fantasma@ribeirabeer.com.br", services.RoleAssistente, nil)
	require.NoError(t, env.db.Delete(&models.User{}, ghost.ID).Error)
	recorder = env.request(t, http.MethodGet, "/api/v1/tasks", token, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestPermissionGates(t *testing.T) {
	env := newTestEnv(t)

	_, adminToken := env.seedUser(t, "Chefe", "chefe@ribeirabeer.com.br", services.RoleAdmin, nil)
	_, helperToken := env.seedUser(t, "Ajudante", "ajudante@ribeirabeer.com.br",
		services.RoleAssistente, []string{"tasks.manage"})
	_, viewerToken := env.seedUser(t, "Consulta", "consulta@ribeirabeer.com.br",
		services.RoleAssistente, nil)

	// Só admin entra nas rotas de usuários
	recorder := env.request(t, http.MethodGet, "/api/v1/users", helperToken, nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	recorder = env.request(t, http.MethodGet, "/api/v1/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// tasks.manage libera criação de tarefa
	payload := gin.H{"title": "Conferir carga"}
	recorder = env.request(t, http.MethodPost, "/api/v1/tasks", viewerToken, payload)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	recorder = env.request(t, http.MethodPost, "/api/v1/tasks", helperToken, payload)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	// Listagem fica aberta a qualquer autenticado
	recorder = env.request(t, http.MethodGet, "/api/v1/tasks", viewerToken, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Catálogo exige permissão de retiradas
	recorder = env.request(t, http.MethodGet, "/api/v1/pickup-catalog/status", viewerToken, nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	recorder = env.request(t, http.MethodGet, "/api/v1/pickup-catalog/status", adminToken, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seedUser(t, "Chefe", "chefe@ribeirabeer.com.br", services.RoleAdmin, nil)

	recorder := env.request(t, http.MethodGet, "/api/v1/users/permissions", adminToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var options []services.PermissionOption
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &options))
	assert.Len(t, options, len(services.PermissionDefinitions))

	recorder = env.request(t, http.MethodPost, "/api/v1/users", adminToken, gin.H{
		"name": "Novo", "email": "novo@ribeirabeer.com.br", "password": "abc12345",
		"role": "assistente", "permissions": []string{"deliveries.manage"},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created UserOut
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, []string{"deliveries.manage"}, created.Permissions)

	// Email repetido responde conflito
	recorder = env.request(t, http.MethodPost, "/api/v1/users", adminToken, gin.H{
		"name": "Outro", "email": "novo@ribeirabeer.com.br", "password": "abc12345",
		"role": "assistente",
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)

	path := fmt.Sprintf("/api/v1/users/%d/access", created.ID)
	recorder = env.request(t, http.MethodPut, path, adminToken, gin.H{
		"role": "assistente", "permissions": []string{"tasks.manage", "comodatos.view"},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	// Admin não exclui a própria conta
	recorder = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
