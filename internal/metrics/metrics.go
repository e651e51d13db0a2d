package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics

	employeesCreated    metric.Int64Counter
	employeesViewed     metric.Int64Counter
	employeesListViewed metric.Int64Counter
	notesAdded          metric.Int64Counter
	accessRowsImported  metric.Int64Counter
	badgePDFsGenerated  metric.Int64Counter
	contractsGenerated  metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.employeesCreated, err = meter.Int64Counter(
		"hr_service.employees.created",
		metric.WithDescription("Total number of employees created"),
		metric.WithUnit("{employee}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesViewed, err = meter.Int64Counter(
		"hr_service.employees.viewed",
		metric.WithDescription("Total number of employee lookups"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesListViewed, err = meter.Int64Counter(
		"hr_service.employees.list_viewed",
		metric.WithDescription("Total number of times the employee list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.notesAdded, err = meter.Int64Counter(
		"hr_service.notes.added",
		metric.WithDescription("Total number of notes added to employees"),
		metric.WithUnit("{note}"),
	)
	if err != nil {
		return nil, err
	}

	m.accessRowsImported, err = meter.Int64Counter(
		"hr_service.bus_accesses.imported",
		metric.WithDescription("Total number of bus access records imported"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.badgePDFsGenerated, err = meter.Int64Counter(
		"hr_service.badges.generated",
		metric.WithDescription("Total number of badge label PDFs generated"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	m.contractsGenerated, err = meter.Int64Counter(
		"hr_service.contracts.generated",
		metric.WithDescription("Total number of contracts generated via the templating service"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordEmployeeCreated(ctx context.Context) {
	if m != nil && m.employeesCreated != nil {
		m.employeesCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeeViewed(ctx context.Context) {
	if m != nil && m.employeesViewed != nil {
		m.employeesViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeesListViewed(ctx context.Context) {
	if m != nil && m.employeesListViewed != nil {
		m.employeesListViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordNoteAdded(ctx context.Context) {
	if m != nil && m.notesAdded != nil {
		m.notesAdded.Add(ctx, 1)
	}
}

func (m *Metrics) RecordAccessRowsImported(ctx context.Context, n int64) {
	if m != nil && m.accessRowsImported != nil {
		m.accessRowsImported.Add(ctx, n)
	}
}

func (m *Metrics) RecordBadgePDFGenerated(ctx context.Context) {
	if m != nil && m.badgePDFsGenerated != nil {
		m.badgePDFsGenerated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordContractGenerated(ctx context.Context) {
	if m != nil && m.contractsGenerated != nil {
		m.contractsGenerated.Add(ctx, 1)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
	}
}
