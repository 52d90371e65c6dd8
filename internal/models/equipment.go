package models

import "time"

// Equipment representa um equipamento próprio controlado manualmente
// (na prática quase sempre refrigeradores, mais algumas categorias de apoio).
// RG e etiqueta são únicos quando presentes.
type Equipment struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	Category   string    `json:"category" gorm:"type:varchar(40);not null;default:'refrigerador';index:ix_equipments_category_status"`
	ModelName  string    `json:"model_name" gorm:"type:varchar(120);not null"`
	Brand      string    `json:"brand" gorm:"type:varchar(120)"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
	Voltage    string    `json:"voltage" gorm:"type:varchar(40);default:''"`
	RGCode     *string   `json:"rg_code" gorm:"column:rg_code;type:varchar(120);uniqueIndex:uq_equipments_rg_code"`
	TagCode    *string   `json:"tag_code" gorm:"type:varchar(120);uniqueIndex:uq_equipments_tag_code"`
	Status     string    `json:"status" gorm:"type:varchar(20);not null;default:'novo';index:ix_equipments_category_status"`
	ClientName *string   `json:"client_name" gorm:"type:varchar(180);index"`
	Notes      *string   `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Equipment) TableName() string {
	return "equipments"
}
