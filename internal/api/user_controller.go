package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// UserController administra as contas do painel (somente admin)
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

type UserOut struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func userOut(user *models.User) UserOut {
	return UserOut{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: services.PermissionsForUser(user),
	}
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return 0, false
	}
	return id, true
}

// ListPermissions devolve o cardápio de permissões atribuíveis
// GET /api/v1/users/permissions
func (uc *UserController) ListPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, services.PermissionDefinitions)
}

// List devolve todos os usuários
// GET /api/v1/users
func (uc *UserController) List(c *gin.Context) {
	users, err := uc.users.List()
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]UserOut, 0, len(users))
	for i := range users {
		out = append(out, userOut(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

type UserCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions"`
}

// Create cadastra um usuário
// POST /api/v1/users
func (uc *UserController) Create(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	user, err := uc.users.Create(req.Name, req.Email, req.Password, req.Role, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userOut(user))
}

type UserAccessRequest struct {
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions"`
}

// UpdateAccess troca perfil e permissões de um usuário
// PUT /api/v1/users/:id/access
func (uc *UserController) UpdateAccess(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UserAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	user, err := uc.users.UpdateAccess(id, currentUser(c).ID, req.Role, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userOut(user))
}

// Delete remove um usuário
// DELETE /api/v1/users/:id
func (uc *UserController) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := uc.users.Delete(id, currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type PasswordResetRequest struct {
	Password string `json:"password" binding:"required"`
}

// ResetPassword define uma senha nova
// PUT /api/v1/users/:id/password
func (uc *UserController) ResetPassword(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	if err := uc.users.ResetPassword(id, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
