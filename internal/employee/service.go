package employee

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"hr-service/internal/csvutil"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrCPFExists        = errors.New("an employee with this CPF is already registered")
	ErrEmptyUpdate      = errors.New("no fields provided for update")
)

// InitialNoteCategory is set on notes created together with the employee
const InitialNoteCategory = "Initial registration"

// NoteWriter creates the optional first note when an employee is
// registered with one. Implemented by the note repository.
type NoteWriter interface {
	CreateForEmployee(ctx context.Context, registration int64, text, category string) error
}

type Service interface {
	CreateEmployee(ctx context.Context, req *CreateRequest) (*Employee, error)
	GetAllEmployees(ctx context.Context) ([]Employee, error)
	SearchEmployees(ctx context.Context, filter SearchFilter) ([]Employee, error)
	UpdateEmployee(ctx context.Context, registration int64, req *UpdateRequest) (*Employee, error)
	DeleteEmployee(ctx context.Context, registration int64, name string, cpf int64) (string, error)
	ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error)
}

type service struct {
	repo   Repository
	notes  NoteWriter
	logger *slog.Logger
}

func NewService(repo Repository, notes NoteWriter, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		notes:  notes,
		logger: logger,
	}
}

// CreateEmployee assigns the next sequential registration number and
// persists the record; an optional first note is attached afterwards.
func (s *service) CreateEmployee(ctx context.Context, req *CreateRequest) (*Employee, error) {
	emp, err := req.ToEmployee()
	if err != nil {
		return nil, err
	}

	if existing, _ := s.repo.GetByCPF(ctx, emp.CPF); existing != nil {
		return nil, ErrCPFExists
	}

	registration, err := s.repo.NextRegistration(ctx)
	if err != nil {
		return nil, err
	}
	emp.Registration = registration
	emp.UpdatedAt = time.Now()

	created, err := s.repo.Create(ctx, emp)
	if err != nil {
		return nil, err
	}

	if req.FirstNoteText != "" && s.notes != nil {
		if err := s.notes.CreateForEmployee(ctx, created.Registration, req.FirstNoteText, InitialNoteCategory); err != nil {
			s.logger.Warn("failed to create initial note", "registration", created.Registration, "error", err)
		}
	}

	return created, nil
}

func (s *service) GetAllEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) SearchEmployees(ctx context.Context, filter SearchFilter) ([]Employee, error) {
	if filter.IsZero() {
		return nil, ErrInvalidInput
	}

	employees, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return employees, nil
}

func (s *service) UpdateEmployee(ctx context.Context, registration int64, req *UpdateRequest) (*Employee, error) {
	if registration <= 0 {
		return nil, ErrInvalidInput
	}
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	emp, err := s.repo.GetByRegistration(ctx, registration)
	if err != nil {
		return nil, err
	}

	if req.CPF != nil && *req.CPF != emp.CPF {
		if existing, _ := s.repo.GetByCPF(ctx, *req.CPF); existing != nil {
			return nil, ErrCPFExists
		}
	}

	if err := req.Apply(emp); err != nil {
		return nil, err
	}
	emp.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

// DeleteEmployee requires name, registration and CPF to all match the
// stored record, as a confirmation against accidental removal. Returns
// the deleted employee's name.
func (s *service) DeleteEmployee(ctx context.Context, registration int64, name string, cpf int64) (string, error) {
	if registration <= 0 || name == "" || cpf == 0 {
		return "", ErrInvalidInput
	}

	emp, err := s.repo.GetByRegistration(ctx, registration)
	if err != nil {
		return "", err
	}

	if !strings.EqualFold(strings.TrimSpace(name), emp.Name) || cpf != emp.CPF {
		return "", ErrEmployeeNotFound
	}

	if err := s.repo.Delete(ctx, registration); err != nil {
		return "", err
	}

	s.logger.Info("employee deleted", "registration", registration, "name", emp.Name)
	return emp.Name, nil
}
