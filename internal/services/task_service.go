package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
)

const defaultTaskPriority = "media"

// TaskView é a representação de tarefa devolvida para o painel
type TaskView struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Completed     bool       `json:"completed"`
	DueDate       *time.Time `json:"due_date"`
	Priority      string     `json:"priority"`
	Labels        []string   `json:"labels"`
	AssigneeID    *int       `json:"assignee_id"`
	AssigneeName  string     `json:"assignee_name,omitempty"`
	AssigneeEmail string     `json:"assignee_email,omitempty"`
}

// TaskCreateInput são os campos aceitos na criação de uma tarefa
type TaskCreateInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Labels      []string   `json:"labels"`
	AssigneeID  *int       `json:"assignee_id"`
}

// TaskUpdateInput carrega apenas os campos presentes no payload. Os
// booleanos *Set distinguem "não enviado" de "enviado como nulo".
type TaskUpdateInput struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
	DueDateSet  bool
	Priority    *string
	Labels      []string
	LabelsSet   bool
	AssigneeID  *int
	AssigneeSet bool
}

func (in *TaskUpdateInput) hasRestrictedFields() bool {
	return in.Title != nil || in.Description != nil || in.DueDateSet ||
		in.Priority != nil || in.LabelsSet || in.AssigneeSet
}

func (in *TaskUpdateInput) isEmpty() bool {
	return in.Completed == nil && !in.hasRestrictedFields()
}

// TaskService mantém as tarefas do quadro de operação
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

func normalizeLabels(labels []string) []string {
	result := []string{}
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func taskView(task *models.Task) TaskView {
	view := TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
		Labels:      task.GetLabels(),
		AssigneeID:  task.AssigneeID,
	}
	if view.Priority == "" {
		view.Priority = defaultTaskPriority
	}
	if task.Assignee != nil {
		view.AssigneeName = task.Assignee.Name
		view.AssigneeEmail = task.Assignee.Email
	}
	return view
}

func (ts *TaskService) loadTask(id int) (*models.Task, error) {
	var task models.Task
	err := ts.db.Preload("Assignee").First(&task, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Msg: "Tarefa não encontrada"}
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (ts *TaskService) resolveAssignee(id int) (*models.User, error) {
	var assignee models.User
	err := ts.db.First(&assignee, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Msg: "Usuário não encontrado"}
	}
	if err != nil {
		return nil, err
	}
	return &assignee, nil
}

// Create cadastra uma tarefa, validando o responsável quando informado
func (ts *TaskService) Create(input TaskCreateInput) (*TaskView, error) {
	var assignee *models.User
	if input.AssigneeID != nil {
		found, err := ts.resolveAssignee(*input.AssigneeID)
		if err != nil {
			return nil, err
		}
		assignee = found
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = defaultTaskPriority
	}
	task := models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    priority,
		AssigneeID:  input.AssigneeID,
	}
	if err := task.SetLabels(normalizeLabels(input.Labels)); err != nil {
		return nil, err
	}
	if err := ts.db.Create(&task).Error; err != nil {
		return nil, err
	}
	task.Assignee = assignee
	view := taskView(&task)
	return &view, nil
}

// List devolve as tarefas visíveis para o usuário: quem gerencia tarefas vê
// todas, os demais veem só as atribuídas a eles. Vencimento nulo vai para o
// fim da lista.
func (ts *TaskService) List(user *models.User) ([]TaskView, error) {
	query := ts.db.Preload("Assignee").
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, id DESC")
	if !UserHasPermission(user, "tasks.manage") {
		query = query.Where("assignee_id = ?", user.ID)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, taskView(&tasks[i]))
	}
	return views, nil
}

// Get devolve uma tarefa. Sem tasks.manage, só o responsável pode ver.
func (ts *TaskService) Get(id int, user *models.User) (*TaskView, error) {
	task, err := ts.loadTask(id)
	if err != nil {
		return nil, err
	}
	if !UserHasPermission(user, "tasks.manage") {
		if task.AssigneeID == nil || *task.AssigneeID != user.ID {
			return nil, &ForbiddenError{Msg: "Acesso negado"}
		}
	}
	view := taskView(task)
	return &view, nil
}

// Update altera uma tarefa. Sem tasks.manage, o responsável só pode marcar
// ou desmarcar a conclusão.
func (ts *TaskService) Update(id int, input TaskUpdateInput, user *models.User) (*TaskView, error) {
	task, err := ts.loadTask(id)
	if err != nil {
		return nil, err
	}

	canManage := UserHasPermission(user, "tasks.manage")
	if !canManage {
		if task.AssigneeID == nil || *task.AssigneeID != user.ID {
			return nil, &ForbiddenError{Msg: "Acesso negado"}
		}
		if input.isEmpty() || input.hasRestrictedFields() {
			return nil, &ForbiddenError{Msg: "Acesso negado"}
		}
		task.Completed = *input.Completed
	} else {
		if input.Title != nil {
			task.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Completed != nil {
			task.Completed = *input.Completed
		}
		if input.DueDateSet {
			task.DueDate = input.DueDate
		}
		if input.Priority != nil {
			priority := strings.TrimSpace(*input.Priority)
			if priority == "" {
				priority = defaultTaskPriority
			}
			task.Priority = priority
		}
		if input.LabelsSet {
			if err := task.SetLabels(normalizeLabels(input.Labels)); err != nil {
				return nil, err
			}
		}
		if input.AssigneeSet {
			if input.AssigneeID == nil {
				task.AssigneeID = nil
				task.Assignee = nil
			} else {
				assignee, err := ts.resolveAssignee(*input.AssigneeID)
				if err != nil {
					return nil, err
				}
				task.AssigneeID = input.AssigneeID
				task.Assignee = assignee
			}
		}
	}

	// Save com Select para permitir limpar o responsável
	err = ts.db.Model(&models.Task{}).Where("id = ?", task.ID).
		Select("title", "description", "completed", "due_date", "priority", "labels", "assignee_id").
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"completed":   task.Completed,
			"due_date":    task.DueDate,
			"priority":    task.Priority,
			"labels":      task.Labels,
			"assignee_id": task.AssigneeID,
		}).Error
	if err != nil {
		return nil, err
	}
	view := taskView(task)
	return &view, nil
}

// Delete remove uma tarefa
func (ts *TaskService) Delete(id int) error {
	task, err := ts.loadTask(id)
	if err != nil {
		return err
	}
	return ts.db.Delete(task).Error
}
