package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// AuthController cuida do login e da sessão do painel
type AuthController struct {
	users  *services.UserService
	tokens *TokenManager
}

func NewAuthController(users *services.UserService, tokens *TokenManager) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login autentica por email e senha e devolve o token
// POST /api/v1/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe email e senha"})
		return
	}

	user, err := ac.users.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := ac.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me devolve o usuário autenticado com as permissões efetivas
// GET /api/v1/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Não autenticado"})
		return
	}
	c.JSON(http.StatusOK, userOut(user))
}
