package ports

import (
	"context"
	"time"

	"goglam/domain/model"

	"github.com/google/uuid"
)

// StoredModel pairs a fitted-model snapshot with its storage identity.
type StoredModel struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Snapshot  *model.Snapshot `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ModelStorePort persists fitted model snapshots.
type ModelStorePort interface {
	SaveModel(ctx context.Context, m *StoredModel) error
	GetModel(ctx context.Context, id uuid.UUID) (*StoredModel, error)
	GetModelByName(ctx context.Context, name string) (*StoredModel, error)
	ListModels(ctx context.Context) ([]*StoredModel, error)
	DeleteModel(ctx context.Context, id uuid.UUID) error
}
