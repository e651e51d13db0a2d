package busaccess

import (
	"time"

	"github.com/uptrace/bun"

	"hr-service/internal/employee"
)

// BusAccess is one logged boarding of a company bus. Records are
// written in bulk by the CSV import and are read-only afterwards.
type BusAccess struct {
	bun.BaseModel `bun:"table:bus_accesses,alias:ba"`

	ID                   int64     `bun:"id,pk,autoincrement" json:"id"`
	Timestamp            time.Time `bun:"timestamp,notnull" json:"timestamp"`
	BusNumber            int64     `bun:"bus_number,notnull" json:"busNumber"`
	EmployeeRegistration int64     `bun:"employee_registration,notnull" json:"-"`

	Employee *employee.Employee `bun:"rel:belongs-to,join:employee_registration=registration" json:"-"`
}

// EmployeeRef is the minimal employee view nested in access listings.
type EmployeeRef struct {
	Registration int64  `json:"registration"`
	Name         string `json:"name"`
}

// View is one access record with its employee resolved.
type View struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	BusNumber int64       `json:"busNumber"`
	Employee  EmployeeRef `json:"employee"`
}

// ListResponse is the payload of the full access listing.
type ListResponse struct {
	BusAccesses   []View `json:"busAccesses"`
	TotalAccesses int    `json:"totalAccesses"`
}

// AccessDetail is one access inside an employee history.
type AccessDetail struct {
	Timestamp time.Time `json:"timestamp"`
	BusNumber int64     `json:"busNumber"`
}

// EmployeeHistory is the full access history of one employee.
type EmployeeHistory struct {
	Registration  int64          `json:"registration"`
	Name          string         `json:"name"`
	Accesses      []AccessDetail `json:"accesses"`
	TotalAccesses int            `json:"totalAccesses"`
}

// EmployeeOnBus groups the timestamps of one employee on one bus.
type EmployeeOnBus struct {
	Registration int64       `json:"registration"`
	Name         string      `json:"name"`
	Accesses     []Timestamp `json:"accesses"`
}

type Timestamp struct {
	Timestamp time.Time `json:"timestamp"`
}

// BusReport lists, for one bus, every employee that boarded it.
type BusReport struct {
	BusNumber     int64           `json:"busNumber"`
	Employees     []EmployeeOnBus `json:"employees"`
	TotalAccesses int             `json:"totalAccesses"`
}

// DailyEmployeeAccess groups one employee's boarding times on a day.
type DailyEmployeeAccess struct {
	Registration int64    `json:"registration"`
	Name         string   `json:"name"`
	Times        []string `json:"times"`
}

// DailyBusReport groups a day's boardings for one bus.
type DailyBusReport struct {
	BusNumber          int64                 `json:"busNumber"`
	AccessesByEmployee []DailyEmployeeAccess `json:"accessesByEmployee"`
}

// DailyReport groups all boardings on a date, per bus then per employee.
type DailyReport struct {
	Date          string           `json:"date"`
	DailyReport   []DailyBusReport `json:"dailyReport"`
	TotalAccesses int              `json:"totalAccesses"`
}
