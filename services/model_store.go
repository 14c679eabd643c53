package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
	appConfig "github.com/kendall-kelly/customer-analytics-api/config"
)

// ErrModelNotFound is returned by Load when a tenant has no saved model
var ErrModelNotFound = errors.New("model not found")

// ModelStore persists one prediction model per tenant. Save overwrites; the last write wins.
type ModelStore interface {
	analytics.ModelSaver
	Load(ctx context.Context, tenantID uint) (*analytics.Model, error)
	Name() string
}

var modelStoreInstance ModelStore

// InitModelStore builds the store selected by MODEL_STORE
func InitModelStore(ctx context.Context, cfg *appConfig.Config) (ModelStore, error) {
	var (
		store ModelStore
		err   error
	)
	switch cfg.ModelStore {
	case appConfig.ModelStoreS3:
		store, err = InitS3ModelStore(ctx, cfg)
	case appConfig.ModelStoreRedis:
		store, err = NewRedisModelStoreFromURL(cfg.RedisURL)
	default:
		store, err = NewLocalModelStore(cfg.ModelsDir)
	}
	if err != nil {
		return nil, err
	}
	modelStoreInstance = store
	return store, nil
}

// GetModelStore returns the initialized model store
func GetModelStore() ModelStore {
	return modelStoreInstance
}

// SetModelStore sets the model store instance (primarily for testing)
func SetModelStore(store ModelStore) {
	modelStoreInstance = store
}

// ModelKey is the storage key of a tenant's model
func ModelKey(tenantID uint) string {
	return fmt.Sprintf("rf_pred_tenant_%d", tenantID)
}

func encodeModel(model *analytics.Model) ([]byte, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return data, nil
}

func decodeModel(data []byte) (*analytics.Model, error) {
	var model analytics.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &model, nil
}

func countSave(store string, err error) error {
	ModelSavesTotal.WithLabelValues(store, resultLabel(err)).Inc()
	return err
}
