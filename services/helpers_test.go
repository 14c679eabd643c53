package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newSeededRandom() analytics.Random {
	return analytics.NewRandom(42)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	// every pooled connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func sampleSnapshot() *Snapshot {
	company := uint(2)
	return &Snapshot{
		Clients: []models.Client{
			{ClientID: 1, TenantID: 1, Name: "Sara Tazi", City: "Rabat"},
			{ClientID: 2, TenantID: 1, Name: "Omar Benali", City: "Fès"},
			{ClientID: 1, TenantID: 2, Name: "Hiba Alaoui", City: "Agadir"},
		},
		Orders: []models.Order{
			{ID: 1, ClientID: 1, TenantID: 1, OrderDate: datePtr(2025, 5, 1), TotalAmount: 100, Status: "completed", DeliveryCompanyID: &company},
			{ID: 2, ClientID: 1, TenantID: 1, OrderDate: datePtr(2025, 5, 10), TotalAmount: 200.5, Status: "cancelled"},
			{ID: 3, ClientID: 2, TenantID: 1, TotalAmount: 80, Status: "completed"},
			{ID: 4, ClientID: 1, TenantID: 2, OrderDate: datePtr(2025, 4, 2), TotalAmount: 999, Status: "completed"},
		},
		Messages: []models.Message{
			{ID: 1, ClientID: 1, TenantID: 1, Content: "Great service, thanks!", CreatedAt: datePtr(2025, 5, 2)},
			{ID: 2, ClientID: 1, TenantID: 2, Content: "Delivery was late", CreatedAt: datePtr(2025, 4, 3)},
		},
	}
}
