package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
)

// TaskController cuida do quadro de tarefas
type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

// Create cadastra uma tarefa
// POST /api/v1/tasks
func (tc *TaskController) Create(c *gin.Context) {
	var input services.TaskCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	task, err := tc.tasks.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List devolve as tarefas visíveis para o usuário autenticado
// GET /api/v1/tasks
func (tc *TaskController) List(c *gin.Context) {
	tasks, err := tc.tasks.List(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Get devolve uma tarefa
// GET /api/v1/tasks/:id
func (tc *TaskController) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	task, err := tc.tasks.Get(id, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// taskUpdatePayload preserva a distinção entre campo ausente e campo
// enviado como nulo
type taskUpdatePayload struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Completed   *bool            `json:"completed"`
	DueDate     *json.RawMessage `json:"due_date"`
	Priority    *string          `json:"priority"`
	Labels      *[]string        `json:"labels"`
	AssigneeID  *json.RawMessage `json:"assignee_id"`
}

func (p *taskUpdatePayload) toInput() (services.TaskUpdateInput, error) {
	input := services.TaskUpdateInput{
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		Priority:    p.Priority,
	}
	if p.DueDate != nil {
		input.DueDateSet = true
		if string(*p.DueDate) != "null" {
			var due time.Time
			if err := json.Unmarshal(*p.DueDate, &due); err != nil {
				return input, err
			}
			input.DueDate = &due
		}
	}
	if p.Labels != nil {
		input.LabelsSet = true
		input.Labels = *p.Labels
	}
	if p.AssigneeID != nil {
		input.AssigneeSet = true
		if string(*p.AssigneeID) != "null" {
			var assigneeID int
			if err := json.Unmarshal(*p.AssigneeID, &assigneeID); err != nil {
				return input, err
			}
			input.AssigneeID = &assigneeID
		}
	}
	return input, nil
}

// Update altera uma tarefa
// PUT /api/v1/tasks/:id
func (tc *TaskController) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload taskUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	input, err := payload.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "details": err.Error()})
		return
	}
	task, err := tc.tasks.Update(id, input, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete remove uma tarefa
// DELETE /api/v1/tasks/:id
func (tc *TaskController) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := tc.tasks.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Tarefa excluída"})
}
