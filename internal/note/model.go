package note

import (
	"time"

	"github.com/uptrace/bun"
)

type Note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID                   int64     `bun:"id,pk,autoincrement" json:"id"`
	Text                 string    `bun:"text,notnull" json:"text"`
	Category             string    `bun:"category" json:"category,omitempty"`
	EmployeeRegistration int64     `bun:"employee_registration,notnull" json:"employeeRegistration"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// AddRequest is the request body for attaching a note to an employee
type AddRequest struct {
	Text                 string `json:"text" validate:"required"`
	Category             string `json:"category" validate:"omitempty,max=50"`
	EmployeeRegistration int64  `json:"employeeRegistration" validate:"required"`
}

// UpdateRequest updates the text and/or category of an existing note.
// The owning registration identifies the note together with its id.
type UpdateRequest struct {
	Text                 *string `json:"text"`
	Category             *string `json:"category" validate:"omitempty,max=50"`
	EmployeeRegistration int64   `json:"employeeRegistration" validate:"required"`
}

func (r *UpdateRequest) IsEmpty() bool {
	return r.Text == nil && r.Category == nil
}
