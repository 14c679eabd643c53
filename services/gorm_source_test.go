package services

import (
	"context"
	"testing"

	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRecordSource_Load(t *testing.T) {
	db := newTestDB(t)
	data := sampleSnapshot()
	require.NoError(t, db.Create(&data.Clients).Error)
	require.NoError(t, db.Create(&data.Orders).Error)
	require.NoError(t, db.Create(&data.Messages).Error)

	snap, err := NewGormRecordSource(db).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "database", snap.Source)
	assert.Len(t, snap.Clients, 3)
	require.Len(t, snap.Orders, 4)
	assert.Equal(t, 200.5, snap.Orders[1].TotalAmount)
	assert.Nil(t, snap.Orders[2].OrderDate)
	require.NotNil(t, snap.Orders[0].DeliveryCompanyID)
	assert.Equal(t, uint(2), *snap.Orders[0].DeliveryCompanyID)
	assert.Len(t, snap.Messages, 2)
}

func TestGormRecordSource_EmptyTables(t *testing.T) {
	snap, err := NewGormRecordSource(newTestDB(t)).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Orders)
}

func TestGormRecordSource_ReplaceTenant(t *testing.T) {
	db := newTestDB(t)
	data := sampleSnapshot()
	require.NoError(t, db.Create(&data.Clients).Error)
	require.NoError(t, db.Create(&data.Orders).Error)
	require.NoError(t, db.Create(&data.Messages).Error)
	source := NewGormRecordSource(db)

	fresh := Generate(GeneratorConfig{TenantID: 1, Clients: 4, Orders: 6, Messages: 3, MinAmount: 50, MaxAmount: 500, Statuses: []string{"completed", "cancelled"}, DeliveryCompanies: 3}, newSeededRandom(), testNow)
	require.NoError(t, source.ReplaceTenant(context.Background(), 1, fresh))

	var count int64
	db.Model(&models.Order{}).Where("tenant_id = ?", 1).Count(&count)
	assert.Equal(t, int64(6), count)
	db.Model(&models.Order{}).Where("tenant_id = ?", 2).Count(&count)
	assert.Equal(t, int64(1), count, "other tenants are untouched")
	db.Model(&models.Client{}).Where("tenant_id = ?", 1).Count(&count)
	assert.Equal(t, int64(4), count)
	db.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(4), count)
}
