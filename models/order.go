package models

import (
	"time"
)

// Order represents a single purchase made by a client of a tenant store
type Order struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ClientID          uint       `gorm:"not null;index" json:"client_id"`
	TenantID          uint       `gorm:"not null;index" json:"tenant_id"`
	OrderDate         *time.Time `json:"order_date"` // nullable, rows with a missing date count as "ordered today"
	TotalAmount       float64    `gorm:"not null;default:0" json:"total_amount"`
	Status            string     `gorm:"not null;default:'completed'" json:"status"` // completed, cancelled
	DeliveryCompanyID *uint      `json:"delivery_company_id"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
