package repomanager

import (
	"context"
	"database/sql"

	"schoolmedia/internal/dbx"
	"schoolmedia/internal/server/repositories/media"
	"schoolmedia/internal/server/repositories/staged"
	"schoolmedia/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Media(db dbx.DBTX) media.Repository
	Staged(db dbx.DBTX) staged.Repository
}
