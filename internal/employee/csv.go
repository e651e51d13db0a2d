package employee

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hr-service/internal/csvutil"
)

var employeeCSVColumns = []string{
	"name", "cpf", "identity_number", "birth_date", "gender", "address",
	"primary_phone", "secondary_phone", "email", "position", "salary",
	"cost_center", "department", "manager_registration", "manager_name",
	"hire_date", "termination_date", "status",
}

// ImportCSV bulk-loads employees from a CSV file. Rows are processed
// independently: format errors and duplicate CPFs are reported per line
// and do not abort the batch.
func (s *service) ImportCSV(ctx context.Context, file io.Reader) (*csvutil.Result, error) {
	rows, err := csvutil.Read(file, employeeCSVColumns)
	if err != nil {
		return nil, err
	}

	result := &csvutil.Result{Errors: []string{}}

	nextRegistration, err := s.repo.NextRegistration(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		cpf, err := strconv.ParseInt(row.Get("cpf"), 10, 64)
		if err != nil || row.Get("name") == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing or invalid 'cpf' or 'name'", row.Line))
			continue
		}

		if existing, _ := s.repo.GetByCPF(ctx, cpf); existing != nil {
			result.Skipped++
			continue
		}

		emp, err := rowToEmployee(row, cpf)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}

		emp.Registration = nextRegistration
		emp.UpdatedAt = time.Now()

		if _, err := s.repo.Create(ctx, emp); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}

		nextRegistration++
		result.Added++
	}

	s.logger.Info("employee CSV import finished",
		"added", result.Added, "skipped", result.Skipped, "errors", len(result.Errors))

	return result, nil
}

func rowToEmployee(row csvutil.Row, cpf int64) (*Employee, error) {
	identity, err := strconv.ParseInt(row.Get("identity_number"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid identity_number %q", row.Get("identity_number"))
	}
	salary, err := strconv.ParseFloat(row.Get("salary"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid salary %q", row.Get("salary"))
	}
	managerRegistration, err := strconv.ParseInt(row.Get("manager_registration"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid manager_registration %q", row.Get("manager_registration"))
	}
	birthDate, err := time.Parse(dateLayout, row.Get("birth_date"))
	if err != nil {
		return nil, fmt.Errorf("invalid birth_date %q", row.Get("birth_date"))
	}
	hireDate, err := time.Parse(dateLayout, row.Get("hire_date"))
	if err != nil {
		return nil, fmt.Errorf("invalid hire_date %q", row.Get("hire_date"))
	}

	emp := &Employee{
		Name:                titleCase(row.Get("name")),
		CPF:                 cpf,
		IdentityNumber:      identity,
		BirthDate:           birthDate,
		Gender:              strings.ToUpper(row.Get("gender")),
		Address:             row.Get("address"),
		PrimaryPhone:        row.Get("primary_phone"),
		SecondaryPhone:      row.Get("secondary_phone"),
		Email:               strings.ToLower(row.Get("email")),
		Position:            row.Get("position"),
		Salary:              salary,
		CostCenter:          row.Get("cost_center"),
		Department:          row.Get("department"),
		ManagerRegistration: managerRegistration,
		ManagerName:         titleCase(row.Get("manager_name")),
		HireDate:            hireDate,
	}

	emp.Status = strings.ToUpper(row.Get("status"))
	if emp.Status == "" {
		emp.Status = "A"
	}

	if termination := row.Get("termination_date"); termination != "" {
		terminationDate, err := time.Parse(dateLayout, termination)
		if err != nil {
			return nil, fmt.Errorf("invalid termination_date %q", termination)
		}
		emp.TerminationDate = &terminationDate
	}

	return emp, nil
}
