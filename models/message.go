package models

import (
	"time"
)

// Message represents a free-text message a client sent to a tenant store
type Message struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ClientID  uint       `gorm:"not null;index" json:"client_id"`
	TenantID  uint       `gorm:"not null;index" json:"tenant_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt *time.Time `json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
