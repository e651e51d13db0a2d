package busaccess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"hr-service/internal/csvutil"
)

var ErrNoAccessRecords = errors.New("no access records found")

const timestampLayout = "2006-01-02 15:04:05"

// EmployeeFinder is the slice of the employee repository needed for
// referential checks during import.
type EmployeeFinder interface {
	Exists(ctx context.Context, registration int64) (bool, error)
}

// EventPublisher receives an event after a successful bulk import.
// *messaging.Producer satisfies it; a nil publisher disables events.
type EventPublisher interface {
	SendMessage(value interface{}) error
}

// ImportedEvent is published to NATS after each import that added rows.
type ImportedEvent struct {
	Event      string `json:"event"`
	RowsAdded  int    `json:"rowsAdded"`
	Skipped    int    `json:"skipped"`
	ImportedAt string `json:"importedAt"`
}

type Service interface {
	GetAll(ctx context.Context) (*ListResponse, error)
	GetHistoryByEmployee(ctx context.Context, registration int64) (*EmployeeHistory, error)
	GetReportByBus(ctx context.Context, busNumber int64) (*BusReport, error)
	GetReportByDate(ctx context.Context, day time.Time) (*DailyReport, error)
	ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error)
}

type service struct {
	repo      Repository
	employees EmployeeFinder
	events    EventPublisher
	logger    *slog.Logger
}

func NewService(repo Repository, employees EmployeeFinder, events EventPublisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		employees: employees,
		events:    events,
		logger:    logger,
	}
}

func (s *service) GetAll(ctx context.Context) (*ListResponse, error) {
	accesses, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(accesses) == 0 {
		return nil, ErrNoAccessRecords
	}

	views := make([]View, 0, len(accesses))
	for _, access := range accesses {
		views = append(views, View{
			ID:        access.ID,
			Timestamp: access.Timestamp,
			BusNumber: access.BusNumber,
			Employee: EmployeeRef{
				Registration: access.EmployeeRegistration,
				Name:         employeeName(&access),
			},
		})
	}

	return &ListResponse{BusAccesses: views, TotalAccesses: len(accesses)}, nil
}

func (s *service) GetHistoryByEmployee(ctx context.Context, registration int64) (*EmployeeHistory, error) {
	accesses, err := s.repo.GetByEmployee(ctx, registration)
	if err != nil {
		return nil, err
	}
	if len(accesses) == 0 {
		return nil, ErrNoAccessRecords
	}

	details := make([]AccessDetail, 0, len(accesses))
	for _, access := range accesses {
		details = append(details, AccessDetail{
			Timestamp: access.Timestamp,
			BusNumber: access.BusNumber,
		})
	}

	return &EmployeeHistory{
		Registration:  registration,
		Name:          employeeName(&accesses[0]),
		Accesses:      details,
		TotalAccesses: len(accesses),
	}, nil
}

// GetReportByBus groups a bus's boardings per employee. Rows arrive
// ordered by registration then timestamp, so a single pass suffices.
func (s *service) GetReportByBus(ctx context.Context, busNumber int64) (*BusReport, error) {
	accesses, err := s.repo.GetByBus(ctx, busNumber)
	if err != nil {
		return nil, err
	}
	if len(accesses) == 0 {
		return nil, ErrNoAccessRecords
	}

	report := &BusReport{BusNumber: busNumber, TotalAccesses: len(accesses)}

	for i := range accesses {
		access := &accesses[i]
		n := len(report.Employees)
		if n == 0 || report.Employees[n-1].Registration != access.EmployeeRegistration {
			report.Employees = append(report.Employees, EmployeeOnBus{
				Registration: access.EmployeeRegistration,
				Name:         employeeName(access),
			})
			n++
		}
		report.Employees[n-1].Accesses = append(report.Employees[n-1].Accesses,
			Timestamp{Timestamp: access.Timestamp})
	}

	return report, nil
}

// GetReportByDate groups a day's boardings per bus, then per employee.
// A day with no boardings yields an empty report, not an error.
func (s *service) GetReportByDate(ctx context.Context, day time.Time) (*DailyReport, error) {
	accesses, err := s.repo.GetByDate(ctx, day)
	if err != nil {
		return nil, err
	}

	report := &DailyReport{
		Date:          day.Format("2006-01-02"),
		DailyReport:   []DailyBusReport{},
		TotalAccesses: len(accesses),
	}

	for i := range accesses {
		access := &accesses[i]

		n := len(report.DailyReport)
		if n == 0 || report.DailyReport[n-1].BusNumber != access.BusNumber {
			report.DailyReport = append(report.DailyReport, DailyBusReport{BusNumber: access.BusNumber})
			n++
		}
		bus := &report.DailyReport[n-1]

		m := len(bus.AccessesByEmployee)
		if m == 0 || bus.AccessesByEmployee[m-1].Registration != access.EmployeeRegistration {
			bus.AccessesByEmployee = append(bus.AccessesByEmployee, DailyEmployeeAccess{
				Registration: access.EmployeeRegistration,
				Name:         employeeName(access),
			})
			m++
		}
		bus.AccessesByEmployee[m-1].Times = append(bus.AccessesByEmployee[m-1].Times,
			access.Timestamp.Format("15:04:05"))
	}

	return report, nil
}

var accessCSVColumns = []string{"date", "time", "registration", "bus_number"}

// ImportCSV bulk-loads access records. Rows are processed
// independently: format errors and unknown registrations are reported
// per line, and a record that already exists for the same employee and
// timestamp is skipped as a duplicate.
func (s *service) ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error) {
	rows, err := csvutil.Read(file, accessCSVColumns)
	if err != nil {
		return nil, err
	}

	result := &csvutil.Result{Errors: []string{}}
	var batch []BusAccess

	for _, row := range rows {
		registration, err := strconv.ParseInt(row.Get("registration"), 10, 64)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: registration must be a number", row.Line))
			continue
		}
		busNumber, err := strconv.ParseInt(row.Get("bus_number"), 10, 64)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: bus_number must be a number", row.Line))
			continue
		}
		timestamp, err := time.Parse(timestampLayout, row.Get("date")+" "+row.Get("time"))
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: invalid date/time, expected YYYY-MM-DD and HH:MM:SS", row.Line))
			continue
		}

		exists, err := s.employees.Exists(ctx, registration)
		if err != nil {
			return nil, err
		}
		if !exists {
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: employee with registration %d not found", row.Line, registration))
			continue
		}

		duplicate, err := s.repo.ExistsAt(ctx, registration, timestamp)
		if err != nil {
			return nil, err
		}
		if duplicate {
			result.Skipped++
			continue
		}

		batch = append(batch, BusAccess{
			Timestamp:            timestamp,
			BusNumber:            busNumber,
			EmployeeRegistration: registration,
		})
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	result.Added = len(batch)

	s.logger.Info("bus access CSV import finished",
		"added", result.Added, "skipped", result.Skipped, "errors", len(result.Errors))

	if result.Added > 0 && s.events != nil {
		event := ImportedEvent{
			Event:      "bus_accesses_imported",
			RowsAdded:  result.Added,
			Skipped:    result.Skipped,
			ImportedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.SendMessage(event); err != nil {
			s.logger.Warn("failed to publish import event", "error", err)
		}
	}

	return result, nil
}

func employeeName(access *BusAccess) string {
	if access.Employee != nil {
		return access.Employee.Name
	}
	return ""
}
