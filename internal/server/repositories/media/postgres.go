package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"schoolmedia/internal/common"
	"schoolmedia/internal/dbx"
	"schoolmedia/internal/server/models"
)

// PostgresRepository implements media record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a record for a stored blob and returns its id. The id is
// assigned here when the caller did not set one.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.MediaRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := `
		INSERT INTO media_records
			(id, entity, file_name, media_id, url, content_type, size_bytes,
			 album, year, event_date, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Entity, rec.FileName, rec.MediaID, rec.URL, rec.ContentType, rec.SizeBytes,
		rec.Album, rec.Year, rec.EventDate, rec.Description, rec.CreatedBy)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return "", fmt.Errorf("unexpected rows affected: %d", n)
	}
	return rec.ID, nil
}

// Delete removes the record for id. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM media_records WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaRecord, error) {
	query := `
		SELECT id, entity, file_name, media_id, url, content_type, size_bytes,
		       album, year, event_date, description, created_by, created_at
		FROM media_records
		WHERE id = $1
	`
	rec := &models.MediaRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Entity, &rec.FileName, &rec.MediaID, &rec.URL, &rec.ContentType, &rec.SizeBytes,
		&rec.Album, &rec.Year, &rec.EventDate, &rec.Description, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// ListByEntity returns records for one admin screen, optionally filtered by
// year (year <= 0 means all years), newest first.
func (r *PostgresRepository) ListByEntity(ctx context.Context, entity string, year int) ([]*models.MediaRecord, error) {
	query := `
		SELECT id, entity, file_name, media_id, url, content_type, size_bytes,
		       album, year, event_date, description, created_by, created_at
		FROM media_records
		WHERE entity = $1 AND ($2 <= 0 OR year = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entity, year)
	if err != nil {
		return nil, fmt.Errorf("failed to select media records: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaRecord
	for rows.Next() {
		rec := &models.MediaRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Entity, &rec.FileName, &rec.MediaID, &rec.URL, &rec.ContentType, &rec.SizeBytes,
			&rec.Album, &rec.Year, &rec.EventDate, &rec.Description, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
