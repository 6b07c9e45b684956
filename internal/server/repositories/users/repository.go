package users

import (
	"context"

	"schoolmedia/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
}
