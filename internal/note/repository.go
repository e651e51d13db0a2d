package note

import (
	"context"
	"database/sql"
	"time"

	"hr-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, note *Note) (*Note, error)
	CreateForEmployee(ctx context.Context, registration int64, text, category string) error
	GetByIDAndEmployee(ctx context.Context, id, registration int64) (*Note, error)
	GetByEmployee(ctx context.Context, registration int64) ([]Note, error)
	Update(ctx context.Context, note *Note) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, note *Note) (*Note, error) {
	start := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(note).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "notes", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return note, nil
}

// CreateForEmployee implements employee.NoteWriter so the employee
// service can attach an initial note at registration time.
func (r *repository) CreateForEmployee(ctx context.Context, registration int64, text, category string) error {
	_, err := r.Create(ctx, &Note{
		Text:                 text,
		Category:             category,
		EmployeeRegistration: registration,
	})
	return err
}

func (r *repository) GetByIDAndEmployee(ctx context.Context, id, registration int64) (*Note, error) {
	start := time.Now()
	note := new(Note)
	err := r.db.NewSelect().
		Model(note).
		Where("id = ?", id).
		Where("employee_registration = ?", registration).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (r *repository) GetByEmployee(ctx context.Context, registration int64) ([]Note, error) {
	start := time.Now()
	var notes []Note
	err := r.db.NewSelect().
		Model(&notes).
		Where("employee_registration = ?", registration).
		Order("created_at ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	return notes, err
}

func (r *repository) Update(ctx context.Context, note *Note) error {
	start := time.Now()
	result, err := r.db.NewUpdate().Model(note).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "notes", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
