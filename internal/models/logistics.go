package models

import "time"

// Delivery registra uma entrega realizada (com os comprovantes em PDF)
type Delivery struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Description  string    `json:"description" gorm:"type:varchar(255);not null"`
	DeliveryDate time.Time `json:"delivery_date" gorm:"not null;index"`
	DeliveryTime string    `json:"delivery_time" gorm:"type:varchar(20)"`
	PdfOnePath   string    `json:"pdf_one_path" gorm:"type:varchar(255)"`
	PdfTwoPath   string    `json:"pdf_two_path" gorm:"type:varchar(255)"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// Pickup registra um recolhimento avulso de material
type Pickup struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Description string    `json:"description" gorm:"type:varchar(255);not null"`
	PickupDate  time.Time `json:"pickup_date" gorm:"not null;index"`
	Material    string    `json:"material" gorm:"type:varchar(255);not null"`
	Quantity    int       `json:"quantity" gorm:"not null;default:1"`
	PhotoPath   string    `json:"photo_path" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Pickup) TableName() string {
	return "pickups"
}
