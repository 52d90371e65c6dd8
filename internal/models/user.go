package models

import (
	"encoding/json"
	"time"
)

// User representa um usuário interno (admin ou assistente de operação)
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"type:varchar(180);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(120);not null"`
	Role         string    `json:"role" gorm:"type:varchar(40);not null;default:'assistente'"`
	Permissions  string    `json:"-" gorm:"type:text"` // JSON com os códigos de permissão
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// GetPermissions devolve os códigos de permissão a partir do JSON armazenado
func (u *User) GetPermissions() []string {
	if u.Permissions == "" {
		return []string{}
	}
	var codes []string
	if err := json.Unmarshal([]byte(u.Permissions), &codes); err != nil {
		return []string{}
	}
	return codes
}

// SetPermissions grava os códigos de permissão como JSON
func (u *User) SetPermissions(codes []string) error {
	if len(codes) == 0 {
		u.Permissions = "[]"
		return nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	u.Permissions = string(data)
	return nil
}
