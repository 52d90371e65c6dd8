package services

import (
	"log"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

// Perfis aceitos
const (
	RoleAdmin      = "admin"
	RoleAssistente = "assistente"
)

var validRoles = map[string]bool{
	RoleAdmin:      true,
	RoleAssistente: true,
}

// PermissionOption é uma permissão atribuível a assistentes
type PermissionOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// PermissionDefinitions lista as permissões conhecidas, na ordem de
// exibição das telas de acesso
var PermissionDefinitions = []PermissionOption{
	{Code: "tasks.manage", Label: "Criar e editar tarefas"},
	{Code: "deliveries.manage", Label: "Gerenciar entregas"},
	{Code: "pickups.manage", Label: "Gerenciar retiradas de materiais"},
	{Code: "pickups.create_order", Label: "Ordem de retirada"},
	{Code: "pickups.import_base", Label: "Atualizar base de retiradas"},
	{Code: "pickups.orders_history", Label: "Histórico de ordens"},
	{Code: "pickups.withdrawals_history", Label: "Histórico de retiradas"},
	{Code: "comodatos.view", Label: "Dashboard de comodatos"},
	{Code: "equipments.view", Label: "Consulta de equipamentos"},
	{Code: "equipments.manage", Label: "Gerenciar equipamentos"},
}

var allowedPermissions = func() map[string]bool {
	set := make(map[string]bool, len(PermissionDefinitions))
	for _, item := range PermissionDefinitions {
		set[item.Code] = true
	}
	return set
}()

// ParsePermissions filtra e deduplica uma lista de códigos de permissão,
// descartando códigos desconhecidos
func ParsePermissions(raw []string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, item := range raw {
		permission := strings.TrimSpace(item)
		if permission == "" || !allowedPermissions[permission] || seen[permission] {
			continue
		}
		seen[permission] = true
		result = append(result, permission)
	}
	if result == nil {
		result = []string{}
	}
	sort.Strings(result)
	return result
}

// PermissionsForUser devolve as permissões efetivas: admin tem todas
func PermissionsForUser(user *models.User) []string {
	if user == nil {
		return []string{}
	}
	if strings.TrimSpace(user.Role) == RoleAdmin {
		all := make([]string, 0, len(allowedPermissions))
		for code := range allowedPermissions {
			all = append(all, code)
		}
		sort.Strings(all)
		return all
	}
	return ParsePermissions(user.GetPermissions())
}

// UserHasPermission decide se o usuário pode executar a ação
func UserHasPermission(user *models.User, permission string) bool {
	required := strings.TrimSpace(permission)
	if required == "" {
		return false
	}
	for _, code := range PermissionsForUser(user) {
		if code == required {
			return true
		}
	}
	return false
}

// UserService mantém os usuários do painel
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate confere email e senha e devolve o usuário
func (us *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	err := us.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &UnauthorizedError{Msg: "Credenciais inválidas"}
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, &UnauthorizedError{Msg: "Credenciais inválidas"}
	}
	return &user, nil
}

// GetByID busca um usuário pelo id
func (us *UserService) GetByID(id int) (*models.User, error) {
	var user models.User
	err := us.db.First(&user, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Msg: "Usuário não encontrado"}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List devolve todos os usuários em ordem alfabética
func (us *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := us.db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create cadastra um usuário novo. Admin não carrega lista de permissões
// (tem todas por definição).
func (us *UserService) Create(name, email, password, role string, permissions []string) (*models.User, error) {
	if !validRoles[role] {
		return nil, &ValidationError{Msg: "Perfil inválido"}
	}

	var existing models.User
	err := us.db.Where("email = ?", strings.TrimSpace(email)).First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Msg: "Email já cadastrado"}
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role == RoleAdmin {
		permissions = nil
	}
	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := user.SetPermissions(ParsePermissions(permissions)); err != nil {
		return nil, err
	}
	if err := us.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAccess troca perfil e permissões. Um admin não pode rebaixar o
// próprio perfil.
func (us *UserService) UpdateAccess(id, currentUserID int, role string, permissions []string) (*models.User, error) {
	if !validRoles[role] {
		return nil, &ValidationError{Msg: "Perfil inválido"}
	}
	if id == currentUserID && role != RoleAdmin {
		return nil, &ValidationError{Msg: "Não é possível remover o próprio perfil de administrador"}
	}

	user, err := us.GetByID(id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if role == RoleAdmin {
		permissions = nil
	}
	if err := user.SetPermissions(ParsePermissions(permissions)); err != nil {
		return nil, err
	}
	if err := us.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Delete remove um usuário e desvincula as tarefas atribuídas a ele
func (us *UserService) Delete(id, currentUserID int) error {
	if id == currentUserID {
		return &ValidationError{Msg: "Não é possível excluir o próprio usuário"}
	}
	user, err := us.GetByID(id)
	if err != nil {
		return err
	}
	if err := us.db.Model(&models.Task{}).Where("assignee_id = ?", id).
		Update("assignee_id", nil).Error; err != nil {
		return err
	}
	return us.db.Delete(user).Error
}

// ResetPassword define uma senha nova para o usuário
func (us *UserService) ResetPassword(id int, password string) error {
	user, err := us.GetByID(id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return us.db.Save(user).Error
}

// EnsureAdminUser garante a conta administrativa definida no ambiente.
// Sem email/senha configurados, nada acontece.
func (us *UserService) EnsureAdminUser(name, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := us.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		updated := false
		if name != "" && existing.Name != name {
			existing.Name = name
			updated = true
		}
		if existing.Role != RoleAdmin {
			existing.Role = RoleAdmin
			updated = true
		}
		if updated {
			return us.db.Save(&existing).Error
		}
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleAdmin,
	}
	if err := us.db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("✅ Usuário administrador criado: %s", email)
	return nil
}
