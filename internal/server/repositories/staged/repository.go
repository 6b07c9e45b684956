package staged

import (
	"context"

	"schoolmedia/internal/server/models"
)

// Filters narrow the pending list for the moderation screen. Zero values
// match everything.
type Filters struct {
	Entity string
	Year   int
}

type Repository interface {
	Create(ctx context.Context, sub *models.StagedSubmission) (string, error)
	GetByID(ctx context.Context, id string) (*models.StagedSubmission, error)
	ListPending(ctx context.Context, f Filters) ([]*models.StagedSubmission, error)
	Delete(ctx context.Context, id string) error
}
