package note

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"hr-service/internal/csvutil"
)

var (
	ErrNoteNotFound     = errors.New("note not found for this employee")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmptyUpdate      = errors.New("no fields provided for update")
)

// EmployeeFinder is the slice of the employee repository the note
// service needs for referential checks
type EmployeeFinder interface {
	Exists(ctx context.Context, registration int64) (bool, error)
}

type Service interface {
	AddNote(ctx context.Context, req *AddRequest) (*Note, error)
	UpdateNote(ctx context.Context, id int64, req *UpdateRequest) (*Note, error)
	ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error)
}

type service struct {
	repo      Repository
	employees EmployeeFinder
	logger    *slog.Logger
}

func NewService(repo Repository, employees EmployeeFinder, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		employees: employees,
		logger:    logger,
	}
}

// AddNote attaches a note to an existing employee; unknown registrations
// are rejected.
func (s *service) AddNote(ctx context.Context, req *AddRequest) (*Note, error) {
	exists, err := s.employees.Exists(ctx, req.EmployeeRegistration)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEmployeeNotFound
	}

	created, err := s.repo.Create(ctx, &Note{
		Text:                 req.Text,
		Category:             req.Category,
		EmployeeRegistration: req.EmployeeRegistration,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("note added", "registration", req.EmployeeRegistration)
	return created, nil
}

// UpdateNote changes the text and/or category of a note identified by
// its id and owning registration.
func (s *service) UpdateNote(ctx context.Context, id int64, req *UpdateRequest) (*Note, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	note, err := s.repo.GetByIDAndEmployee(ctx, id, req.EmployeeRegistration)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		note.Text = *req.Text
	}
	if req.Category != nil {
		note.Category = *req.Category
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

var noteCSVColumns = []string{"employee_registration", "category", "text"}

// ImportCSV is a test-only bulk load. Rows referencing unknown
// registrations are skipped with a per-line error.
func (s *service) ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error) {
	rows, err := csvutil.Read(file, noteCSVColumns)
	if err != nil {
		return nil, err
	}

	result := &csvutil.Result{Errors: []string{}}

	for _, row := range rows {
		registration, err := strconv.ParseInt(row.Get("employee_registration"), 10, 64)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: employee_registration must be a number", row.Line))
			continue
		}
		if row.Get("text") == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing 'text'", row.Line))
			continue
		}

		exists, err := s.employees.Exists(ctx, registration)
		if err != nil {
			return nil, err
		}
		if !exists {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: registration %d not found, note skipped", row.Line, registration))
			continue
		}

		if _, err := s.repo.Create(ctx, &Note{
			Text:                 row.Get("text"),
			Category:             row.Get("category"),
			EmployeeRegistration: registration,
		}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}
		result.Added++
	}

	s.logger.Info("note CSV import finished",
		"added", result.Added, "skipped", result.Skipped, "errors", len(result.Errors))

	return result, nil
}
