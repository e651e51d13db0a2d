package employee

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// FirstRegistration is assigned to the first employee ever created; later
// registrations are sequential.
const FirstRegistration int64 = 1000

const dateLayout = "2006-01-02"

type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	Registration        int64      `bun:"registration,pk" json:"registration"`
	Name                string     `bun:"name,notnull" json:"name"`
	CPF                 int64      `bun:"cpf,unique,notnull" json:"cpf"`
	IdentityNumber      int64      `bun:"identity_number,notnull" json:"identityNumber"`
	BirthDate           time.Time  `bun:"birth_date,notnull" json:"-"`
	Gender              string     `bun:"gender,notnull" json:"gender"`
	Address             string     `bun:"address,notnull" json:"address"`
	PrimaryPhone        string     `bun:"primary_phone,notnull" json:"primaryPhone"`
	SecondaryPhone      string     `bun:"secondary_phone" json:"secondaryPhone,omitempty"`
	Email               string     `bun:"email" json:"email,omitempty"`
	Position            string     `bun:"position,notnull" json:"position"`
	Salary              float64    `bun:"salary,notnull" json:"salary"`
	CostCenter          string     `bun:"cost_center,notnull" json:"costCenter"`
	Department          string     `bun:"department,notnull" json:"department"`
	ManagerRegistration int64      `bun:"manager_registration" json:"managerRegistration"`
	ManagerName         string     `bun:"manager_name" json:"managerName"`
	HireDate            time.Time  `bun:"hire_date,notnull" json:"-"`
	TerminationDate     *time.Time `bun:"termination_date" json:"-"`
	Status              string     `bun:"status,notnull,default:'A'" json:"status"`
	UpdatedAt           time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
}

// Response is the JSON view of an Employee with date-only formatting
type Response struct {
	Registration        int64     `json:"registration"`
	Name                string    `json:"name"`
	CPF                 int64     `json:"cpf"`
	IdentityNumber      int64     `json:"identityNumber"`
	BirthDate           string    `json:"birthDate"`
	Gender              string    `json:"gender"`
	Address             string    `json:"address"`
	PrimaryPhone        string    `json:"primaryPhone"`
	SecondaryPhone      string    `json:"secondaryPhone,omitempty"`
	Email               string    `json:"email,omitempty"`
	Position            string    `json:"position"`
	Salary              float64   `json:"salary"`
	CostCenter          string    `json:"costCenter"`
	Department          string    `json:"department"`
	ManagerRegistration int64     `json:"managerRegistration"`
	ManagerName         string    `json:"managerName"`
	HireDate            string    `json:"hireDate"`
	TerminationDate     string    `json:"terminationDate,omitempty"`
	Status              string    `json:"status"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (e *Employee) ToResponse() Response {
	resp := Response{
		Registration:        e.Registration,
		Name:                e.Name,
		CPF:                 e.CPF,
		IdentityNumber:      e.IdentityNumber,
		BirthDate:           e.BirthDate.Format(dateLayout),
		Gender:              e.Gender,
		Address:             e.Address,
		PrimaryPhone:        e.PrimaryPhone,
		SecondaryPhone:      e.SecondaryPhone,
		Email:               e.Email,
		Position:            e.Position,
		Salary:              e.Salary,
		CostCenter:          e.CostCenter,
		Department:          e.Department,
		ManagerRegistration: e.ManagerRegistration,
		ManagerName:         e.ManagerName,
		HireDate:            e.HireDate.Format(dateLayout),
		Status:              e.Status,
		UpdatedAt:           e.UpdatedAt,
	}
	if e.TerminationDate != nil {
		resp.TerminationDate = e.TerminationDate.Format(dateLayout)
	}
	return resp
}

func ToResponses(employees []Employee) []Response {
	responses := make([]Response, 0, len(employees))
	for i := range employees {
		responses = append(responses, employees[i].ToResponse())
	}
	return responses
}

// CreateRequest is the request body for registering a new employee.
// Dates are date-only strings, matching what the frontend forms send.
type CreateRequest struct {
	Name                string  `json:"name" validate:"required,max=100"`
	CPF                 int64   `json:"cpf" validate:"required"`
	IdentityNumber      int64   `json:"identityNumber" validate:"required"`
	BirthDate           string  `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Gender              string  `json:"gender" validate:"required,oneof=M F X"`
	Address             string  `json:"address" validate:"required,max=500"`
	PrimaryPhone        string  `json:"primaryPhone" validate:"required,max=20"`
	SecondaryPhone      string  `json:"secondaryPhone" validate:"omitempty,max=20"`
	Email               string  `json:"email" validate:"omitempty,email,max=200"`
	Position            string  `json:"position" validate:"required,max=100"`
	Salary              float64 `json:"salary" validate:"required,gt=0"`
	CostCenter          string  `json:"costCenter" validate:"required,max=20"`
	Department          string  `json:"department" validate:"required,max=50"`
	ManagerRegistration int64   `json:"managerRegistration" validate:"required"`
	ManagerName         string  `json:"managerName" validate:"required,max=100"`
	HireDate            string  `json:"hireDate" validate:"required,datetime=2006-01-02"`
	TerminationDate     string  `json:"terminationDate" validate:"omitempty,datetime=2006-01-02"`
	Status              string  `json:"status" validate:"required,oneof=A L D"`
	FirstNoteText       string  `json:"firstNoteText"`
}

// Normalize cleans up free-text fields before validation: names are
// title-cased, email lowered, gender uppered, phones and codes trimmed.
func (r *CreateRequest) Normalize() {
	r.Name = titleCase(r.Name)
	r.ManagerName = titleCase(r.ManagerName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	r.Address = strings.TrimSpace(r.Address)
	r.PrimaryPhone = strings.TrimSpace(r.PrimaryPhone)
	r.SecondaryPhone = strings.TrimSpace(r.SecondaryPhone)
	r.Position = strings.TrimSpace(r.Position)
	r.CostCenter = strings.TrimSpace(r.CostCenter)
	r.Department = strings.TrimSpace(r.Department)
}

func (r *CreateRequest) ToEmployee() (*Employee, error) {
	birthDate, err := time.Parse(dateLayout, r.BirthDate)
	if err != nil {
		return nil, ErrInvalidInput
	}
	hireDate, err := time.Parse(dateLayout, r.HireDate)
	if err != nil {
		return nil, ErrInvalidInput
	}

	emp := &Employee{
		Name:                r.Name,
		CPF:                 r.CPF,
		IdentityNumber:      r.IdentityNumber,
		BirthDate:           birthDate,
		Gender:              r.Gender,
		Address:             r.Address,
		PrimaryPhone:        r.PrimaryPhone,
		SecondaryPhone:      r.SecondaryPhone,
		Email:               r.Email,
		Position:            r.Position,
		Salary:              r.Salary,
		CostCenter:          r.CostCenter,
		Department:          r.Department,
		ManagerRegistration: r.ManagerRegistration,
		ManagerName:         r.ManagerName,
		HireDate:            hireDate,
		Status:              r.Status,
	}

	if r.TerminationDate != "" {
		terminationDate, err := time.Parse(dateLayout, r.TerminationDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		emp.TerminationDate = &terminationDate
	}
	return emp, nil
}

// UpdateRequest carries a partial update; nil fields are left untouched
type UpdateRequest struct {
	Name                *string  `json:"name" validate:"omitempty,max=100"`
	CPF                 *int64   `json:"cpf"`
	IdentityNumber      *int64   `json:"identityNumber"`
	BirthDate           *string  `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Gender              *string  `json:"gender" validate:"omitempty,oneof=M F X"`
	Address             *string  `json:"address" validate:"omitempty,max=500"`
	PrimaryPhone        *string  `json:"primaryPhone" validate:"omitempty,max=20"`
	SecondaryPhone      *string  `json:"secondaryPhone" validate:"omitempty,max=20"`
	Email               *string  `json:"email" validate:"omitempty,email,max=200"`
	Position            *string  `json:"position" validate:"omitempty,max=100"`
	Salary              *float64 `json:"salary" validate:"omitempty,gt=0"`
	CostCenter          *string  `json:"costCenter" validate:"omitempty,max=20"`
	Department          *string  `json:"department" validate:"omitempty,max=50"`
	ManagerRegistration *int64   `json:"managerRegistration"`
	ManagerName         *string  `json:"managerName" validate:"omitempty,max=100"`
	HireDate            *string  `json:"hireDate" validate:"omitempty,datetime=2006-01-02"`
	TerminationDate     *string  `json:"terminationDate" validate:"omitempty,datetime=2006-01-02"`
	Status              *string  `json:"status" validate:"omitempty,oneof=A L D"`
}

// Normalize mirrors CreateRequest.Normalize for the fields validated
// against closed sets, so "m" and " a " pass validation as M and A
func (r *UpdateRequest) Normalize() {
	if r.Gender != nil {
		upper := strings.ToUpper(strings.TrimSpace(*r.Gender))
		r.Gender = &upper
	}
	if r.Status != nil {
		upper := strings.ToUpper(strings.TrimSpace(*r.Status))
		r.Status = &upper
	}
}

// IsEmpty reports whether the update carries no fields at all
func (r *UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.CPF == nil && r.IdentityNumber == nil &&
		r.BirthDate == nil && r.Gender == nil && r.Address == nil &&
		r.PrimaryPhone == nil && r.SecondaryPhone == nil && r.Email == nil &&
		r.Position == nil && r.Salary == nil && r.CostCenter == nil &&
		r.Department == nil && r.ManagerRegistration == nil &&
		r.ManagerName == nil && r.HireDate == nil &&
		r.TerminationDate == nil && r.Status == nil
}

// Apply copies the provided fields onto an existing employee record
func (r *UpdateRequest) Apply(emp *Employee) error {
	if r.Name != nil {
		emp.Name = titleCase(*r.Name)
	}
	if r.CPF != nil {
		emp.CPF = *r.CPF
	}
	if r.IdentityNumber != nil {
		emp.IdentityNumber = *r.IdentityNumber
	}
	if r.BirthDate != nil {
		birthDate, err := time.Parse(dateLayout, *r.BirthDate)
		if err != nil {
			return ErrInvalidInput
		}
		emp.BirthDate = birthDate
	}
	if r.Gender != nil {
		emp.Gender = strings.ToUpper(strings.TrimSpace(*r.Gender))
	}
	if r.Address != nil {
		emp.Address = strings.TrimSpace(*r.Address)
	}
	if r.PrimaryPhone != nil {
		emp.PrimaryPhone = strings.TrimSpace(*r.PrimaryPhone)
	}
	if r.SecondaryPhone != nil {
		emp.SecondaryPhone = strings.TrimSpace(*r.SecondaryPhone)
	}
	if r.Email != nil {
		emp.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Position != nil {
		emp.Position = strings.TrimSpace(*r.Position)
	}
	if r.Salary != nil {
		emp.Salary = *r.Salary
	}
	if r.CostCenter != nil {
		emp.CostCenter = strings.TrimSpace(*r.CostCenter)
	}
	if r.Department != nil {
		emp.Department = strings.TrimSpace(*r.Department)
	}
	if r.ManagerRegistration != nil {
		emp.ManagerRegistration = *r.ManagerRegistration
	}
	if r.ManagerName != nil {
		emp.ManagerName = titleCase(*r.ManagerName)
	}
	if r.HireDate != nil {
		hireDate, err := time.Parse(dateLayout, *r.HireDate)
		if err != nil {
			return ErrInvalidInput
		}
		emp.HireDate = hireDate
	}
	if r.TerminationDate != nil {
		if *r.TerminationDate == "" {
			emp.TerminationDate = nil
		} else {
			terminationDate, err := time.Parse(dateLayout, *r.TerminationDate)
			if err != nil {
				return ErrInvalidInput
			}
			emp.TerminationDate = &terminationDate
		}
	}
	if r.Status != nil {
		emp.Status = strings.ToUpper(strings.TrimSpace(*r.Status))
	}
	return nil
}

// titleCase normalizes "  nome SOBRENOME " to "Nome Sobrenome"
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
