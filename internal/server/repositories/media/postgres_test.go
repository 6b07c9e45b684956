package media

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"schoolmedia/internal/common"
	"schoolmedia/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var mediaColumns = []string{"id", "entity", "file_name", "media_id", "url", "content_type", "size_bytes",
	"album", "year", "event_date", "description", "created_by", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+media_records\b.*VALUES\b`

	mock.ExpectExec(q).
		WithArgs("r1", "gallery", "a.jpg", "blob-1", "https://cdn/blob-1", "image/jpeg", int64(1024),
			"sports day", 2026, "2026-06-01", "final", "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), &models.MediaRecord{
		ID:          "r1",
		Entity:      "gallery",
		FileName:    "a.jpg",
		MediaID:     "blob-1",
		URL:         "https://cdn/blob-1",
		ContentType: "image/jpeg",
		SizeBytes:   1024,
		Album:       "sports day",
		Year:        2026,
		EventDate:   "2026-06-01",
		Description: "final",
		CreatedBy:   "admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "r1" {
		t.Fatalf("want id r1, got %s", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+media_records\b`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), &models.MediaRecord{Entity: "gallery"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a generated id")
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+media_records\b`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.MediaRecord{ID: "r1", Entity: "gallery"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+media_records\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+media_records\b`).
		WithArgs("r404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "r404")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(mediaColumns).
		AddRow("r1", "gallery", "a.jpg", "blob-1", "https://cdn/blob-1", "image/jpeg", int64(1024),
			"sports day", 2026, "2026-06-01", "final", "admin", created)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+media_records\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("r1").
		WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.MediaID != "blob-1" || rec.Year != 2026 || !rec.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+media_records\b`).
		WithArgs("r404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "r404")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestListByEntity_FiltersByYear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(mediaColumns).
		AddRow("r2", "gallery", "b.jpg", "blob-2", "https://cdn/blob-2", "image/jpeg", int64(2048),
			"", 2026, "", "", "admin", created).
		AddRow("r1", "gallery", "a.jpg", "blob-1", "https://cdn/blob-1", "image/jpeg", int64(1024),
			"", 2026, "", "", "admin", created.Add(-time.Hour))

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+media_records\s+WHERE\s+entity\s*=\s*\$1\b.*ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("gallery", 2026).
		WillReturnRows(rows)

	result, err := repo.ListByEntity(context.Background(), "gallery", 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("want 2 records, got %d", len(result))
	}
	if result[0].ID != "r2" {
		t.Fatalf("want newest first, got %s", result[0].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByEntity_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM\s+media_records\b`).
		WithArgs("champion", 0).
		WillReturnRows(sqlmock.NewRows(mediaColumns))

	result, err := repo.ListByEntity(context.Background(), "champion", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("want no records, got %d", len(result))
	}
}
