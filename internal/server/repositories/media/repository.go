package media

import (
	"context"

	"schoolmedia/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.MediaRecord) (string, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.MediaRecord, error)
	ListByEntity(ctx context.Context, entity string, year int) ([]*models.MediaRecord, error)
}
