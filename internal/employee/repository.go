package employee

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"hr-service/internal/metrics"

	"github.com/uptrace/bun"
)

// SearchFilter matches employees on any of its non-zero criteria (OR)
type SearchFilter struct {
	Registration int64
	Name         string
	CPF          int64
}

func (f SearchFilter) IsZero() bool {
	return f.Registration == 0 && f.Name == "" && f.CPF == 0
}

type Repository interface {
	Create(ctx context.Context, emp *Employee) (*Employee, error)
	GetAll(ctx context.Context) ([]Employee, error)
	GetByRegistration(ctx context.Context, registration int64) (*Employee, error)
	GetByCPF(ctx context.Context, cpf int64) (*Employee, error)
	GetByRegistrations(ctx context.Context, registrations []int64) ([]Employee, error)
	Search(ctx context.Context, filter SearchFilter) ([]Employee, error)
	Exists(ctx context.Context, registration int64) (bool, error)
	NextRegistration(ctx context.Context) (int64, error)
	Update(ctx context.Context, emp *Employee) error
	Delete(ctx context.Context, registration int64) error
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

func (r *repository) Create(ctx context.Context, emp *Employee) (*Employee, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(emp).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "employees", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Employee, error) {
	start := time.Now()
	var employees []Employee
	err := r.db.NewSelect().
		Model(&employees).
		Order("registration ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	return employees, err
}

func (r *repository) GetByRegistration(ctx context.Context, registration int64) (*Employee, error) {
	start := time.Now()
	emp := new(Employee)
	err := r.db.NewSelect().Model(emp).Where("registration = ?", registration).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return emp, nil
}

func (r *repository) GetByCPF(ctx context.Context, cpf int64) (*Employee, error) {
	start := time.Now()
	emp := new(Employee)
	err := r.db.NewSelect().Model(emp).Where("cpf = ?", cpf).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return emp, nil
}

// GetByRegistrations returns employees matching the given registrations,
// ordered by name; a nil slice returns everyone (badge printing for the
// whole company).
func (r *repository) GetByRegistrations(ctx context.Context, registrations []int64) ([]Employee, error) {
	start := time.Now()
	var employees []Employee
	q := r.db.NewSelect().Model(&employees).Order("name ASC")
	if registrations != nil {
		q = q.Where("registration IN (?)", bun.In(registrations))
	}
	err := q.Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	return employees, err
}

// Search applies the OR filter: a row matches when any provided criterion
// matches. Name matching is a case-insensitive substring match.
func (r *repository) Search(ctx context.Context, filter SearchFilter) ([]Employee, error) {
	start := time.Now()
	var employees []Employee
	err := r.db.NewSelect().
		Model(&employees).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			if filter.Registration != 0 {
				q = q.WhereOr("registration = ?", filter.Registration)
			}
			if filter.Name != "" {
				pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Name)) + "%"
				q = q.WhereOr("LOWER(name) LIKE ?", pattern)
			}
			if filter.CPF != 0 {
				q = q.WhereOr("cpf = ?", filter.CPF)
			}
			return q
		}).
		Order("registration ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	return employees, err
}

func (r *repository) Exists(ctx context.Context, registration int64) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Employee)(nil)).
		Where("registration = ?", registration).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	return exists, err
}

// NextRegistration returns the registration number for the next employee
func (r *repository) NextRegistration(ctx context.Context) (int64, error) {
	start := time.Now()
	var max sql.NullInt64
	err := r.db.NewSelect().
		Model((*Employee)(nil)).
		ColumnExpr("MAX(registration)").
		Scan(ctx, &max)

	r.metrics.Database.RecordQuery(ctx, "select", "employees", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return FirstRegistration, nil
	}
	return max.Int64 + 1, nil
}

func (r *repository) Update(ctx context.Context, emp *Employee) error {
	start := time.Now()
	result, err := r.db.NewUpdate().Model(emp).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "employees", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// Delete removes an employee together with its notes and bus access
// records in one transaction (the schema is created without FK cascade,
// so the cascade lives here).
func (r *repository) Delete(ctx context.Context, registration int64) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM notes WHERE employee_registration = ?", registration); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM bus_accesses WHERE employee_registration = ?", registration); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*Employee)(nil)).
			Where("registration = ?", registration).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrEmployeeNotFound
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "employees", time.Since(start), err)

	return err
}
