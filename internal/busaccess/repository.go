package busaccess

import (
	"context"
	"time"

	"hr-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	CreateBatch(ctx context.Context, accesses []BusAccess) error
	GetAll(ctx context.Context) ([]BusAccess, error)
	GetByEmployee(ctx context.Context, registration int64) ([]BusAccess, error)
	GetByBus(ctx context.Context, busNumber int64) ([]BusAccess, error)
	GetByDate(ctx context.Context, day time.Time) ([]BusAccess, error)
	ExistsAt(ctx context.Context, registration int64, timestamp time.Time) (bool, error)
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

func (r *repository) CreateBatch(ctx context.Context, accesses []BusAccess) error {
	if len(accesses) == 0 {
		return nil
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(&accesses).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "bus_accesses", time.Since(start), err)

	return err
}

func (r *repository) GetAll(ctx context.Context) ([]BusAccess, error) {
	start := time.Now()
	var accesses []BusAccess
	err := r.db.NewSelect().
		Model(&accesses).
		Relation("Employee").
		Order("ba.timestamp ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "bus_accesses", time.Since(start), err)

	return accesses, err
}

func (r *repository) GetByEmployee(ctx context.Context, registration int64) ([]BusAccess, error) {
	start := time.Now()
	var accesses []BusAccess
	err := r.db.NewSelect().
		Model(&accesses).
		Relation("Employee").
		Where("ba.employee_registration = ?", registration).
		Order("ba.timestamp ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "bus_accesses", time.Since(start), err)

	return accesses, err
}

func (r *repository) GetByBus(ctx context.Context, busNumber int64) ([]BusAccess, error) {
	start := time.Now()
	var accesses []BusAccess
	err := r.db.NewSelect().
		Model(&accesses).
		Relation("Employee").
		Where("ba.bus_number = ?", busNumber).
		Order("ba.employee_registration ASC", "ba.timestamp ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "bus_accesses", time.Since(start), err)

	return accesses, err
}

// GetByDate matches on a half-open timestamp range instead of a DATE()
// cast so that both Postgres and SQLite use it unchanged.
func (r *repository) GetByDate(ctx context.Context, day time.Time) ([]BusAccess, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	start := time.Now()
	var accesses []BusAccess
	err := r.db.NewSelect().
		Model(&accesses).
		Relation("Employee").
		Where("ba.timestamp >= ?", dayStart).
		Where("ba.timestamp < ?", dayEnd).
		Order("ba.bus_number ASC", "ba.employee_registration ASC", "ba.timestamp ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "bus_accesses", time.Since(start), err)

	return accesses, err
}

func (r *repository) ExistsAt(ctx context.Context, registration int64, timestamp time.Time) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*BusAccess)(nil)).
		Where("employee_registration = ?", registration).
		Where("timestamp = ?", timestamp).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "bus_accesses", time.Since(start), err)

	return exists, err
}
