package models

import (
	"encoding/json"
	"time"
)

// Task representa uma tarefa atribuível a um usuário
type Task struct {
	ID          int        `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	DueDate     *time.Time `json:"due_date" gorm:"index"`
	Priority    string     `json:"priority" gorm:"type:varchar(20);default:'media'"`
	Labels      string     `json:"-" gorm:"type:text"` // JSON com as etiquetas
	Completed   bool       `json:"completed" gorm:"default:false;index"`
	AssigneeID  *int       `json:"assignee_id" gorm:"index"`
	Assignee    *User      `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) GetLabels() []string {
	if t.Labels == "" {
		return []string{}
	}
	var labels []string
	if err := json.Unmarshal([]byte(t.Labels), &labels); err != nil {
		return []string{}
	}
	return labels
}

func (t *Task) SetLabels(labels []string) error {
	if len(labels) == 0 {
		t.Labels = "[]"
		return nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	t.Labels = string(data)
	return nil
}
