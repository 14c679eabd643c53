package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
)

// LocalModelStore writes each tenant's model as a JSON file under Dir
type LocalModelStore struct {
	Dir string
}

// NewLocalModelStore creates dir if needed
func NewLocalModelStore(dir string) (*LocalModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	return &LocalModelStore{Dir: dir}, nil
}

func (s *LocalModelStore) Name() string { return "local" }

func (s *LocalModelStore) path(tenantID uint) string {
	return filepath.Join(s.Dir, ModelKey(tenantID)+".json")
}

// Save replaces the tenant's file through a rename so readers never see a partial model
func (s *LocalModelStore) Save(ctx context.Context, tenantID uint, model *analytics.Model) error {
	return countSave(s.Name(), s.save(ctx, tenantID, model))
}

func (s *LocalModelStore) save(ctx context.Context, tenantID uint, model *analytics.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeModel(model)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, ModelKey(tenantID)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(tenantID)); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

func (s *LocalModelStore) Load(ctx context.Context, tenantID uint) (*analytics.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(tenantID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return decodeModel(data)
}
