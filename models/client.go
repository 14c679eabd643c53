package models

// Client represents a customer of a tenant store
type Client struct {
	ClientID uint   `gorm:"primaryKey;autoIncrement:false" json:"client_id"`
	TenantID uint   `gorm:"primaryKey;autoIncrement:false;index" json:"tenant_id"`
	Name     string `gorm:"not null" json:"name"`
	City     string `json:"city"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// All returns every model the analytics service reads, in migration order
func All() []interface{} {
	return []interface{}{&Client{}, &Order{}, &Message{}}
}
