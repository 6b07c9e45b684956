package staged

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

// PostgresRepository stores pending submissions over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, sub *models.StagedSubmission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := `
		INSERT INTO staged_submissions
			(id, file_name, entity, year, description, media_id, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	res, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.FileName, sub.Entity, sub.Year, sub.Description,
		sub.MediaID, sub.ContentType, sub.SizeBytes)
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
	return sub.ID, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.StagedSubmission, error) {
	query := `
		SELECT id, file_name, entity, year, description, media_id, content_type, size_bytes, submitted_at
		FROM staged_submissions
		WHERE id = $1
	`
	sub := &models.StagedSubmission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.FileName, &sub.Entity, &sub.Year, &sub.Description,
		&sub.MediaID, &sub.ContentType, &sub.SizeBytes, &sub.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, f Filters) ([]*models.StagedSubmission, error) {
	query := `
		SELECT id, file_name, entity, year, description, media_id, content_type, size_bytes, submitted_at
		FROM staged_submissions
		WHERE ($1 = '' OR entity = $1) AND ($2 <= 0 OR year = $2)
		ORDER BY submitted_at
	`
	rows, err := r.db.QueryContext(ctx, query, f.Entity, f.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to select staged submissions: %w", err)
	}
	defer rows.Close()

	var result []*models.StagedSubmission
	for rows.Next() {
		sub := &models.StagedSubmission{}
		if err := rows.Scan(
			&sub.ID, &sub.FileName, &sub.Entity, &sub.Year, &sub.Description,
			&sub.MediaID, &sub.ContentType, &sub.SizeBytes, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the pending row for id. Deleting an absent row is not an
// error; rejection must stay idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM staged_submissions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
