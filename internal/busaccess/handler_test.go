package busaccess_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hr-service/internal/busaccess"
	"hr-service/internal/employee"
	"hr-service/internal/metrics"
	"hr-service/internal/note"
	"hr-service/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// capturingPublisher records events instead of talking to NATS
type capturingPublisher struct {
	messages []interface{}
}

func (p *capturingPublisher) SendMessage(value interface{}) error {
	p.messages = append(p.messages, value)
	return nil
}

func seedEmployee(t *testing.T, db *bun.DB, registration int64, name string) {
	t.Helper()

	emp := &employee.Employee{
		Registration:   registration,
		Name:           name,
		CPF:            registration * 13,
		IdentityNumber: 123,
		BirthDate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:         "F",
		Address:        "Rua Y",
		PrimaryPhone:   "11 90000-0000",
		Position:       "Driver Ops",
		Salary:         3200,
		CostCenter:     "CC-2",
		Department:     "Logistics",
		ManagerName:    "Chef",
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         "A",
		UpdatedAt:      time.Now(),
	}
	_, err := db.NewInsert().Model(emp).Exec(context.Background())
	require.NoError(t, err)
}

func TestBusAccessHandler_Shared(t *testing.T) {
	db := testdb.Setup(t)
	testdb.RunMigrations(t, db,
		(*employee.Employee)(nil),
		(*note.Note)(nil),
		(*busaccess.BusAccess)(nil),
	)

	mockMetrics := metrics.NewMock()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	employeeRepo := employee.NewRepository(db, mockMetrics)
	busRepo := busaccess.NewRepository(db, mockMetrics)
	publisher := &capturingPublisher{}
	service := busaccess.NewService(busRepo, employeeRepo, publisher, logger)
	handler := busaccess.NewHandler(service, logger, mockMetrics)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	cleanup := func(t *testing.T) {
		testdb.CleanupTables(t, db, "bus_accesses", "employees")
		publisher.messages = nil
	}

	importCSV := func(t *testing.T, content string) *httptest.ResponseRecorder {
		t.Helper()

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "accesses.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/test/bus-accesses/import", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	const sampleCSV = "date,time,registration,bus_number\n" +
		"2026-03-02,07:15:00,1000,12\n" +
		"2026-03-02,17:40:10,1000,12\n" +
		"2026-03-02,07:20:30,1001,12\n" +
		"2026-03-03,07:16:00,1000,7\n"

	seedBoth := func(t *testing.T) {
		seedEmployee(t, db, 1000, "Ana Lima")
		seedEmployee(t, db, 1001, "Bruno Costa")
	}

	t.Run("Import_ValidRows", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)

		w := importCSV(t, sampleCSV)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var result struct {
			Added   int      `json:"recordsAdded"`
			Skipped int      `json:"duplicatesSkipped"`
			Errors  []string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 4, result.Added)
		assert.Zero(t, result.Skipped)
		assert.Empty(t, result.Errors)

		require.Len(t, publisher.messages, 1)
		event, ok := publisher.messages[0].(busaccess.ImportedEvent)
		require.True(t, ok)
		assert.Equal(t, "bus_accesses_imported", event.Event)
		assert.Equal(t, 4, event.RowsAdded)
	})

	t.Run("Import_AllDuplicates", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)

		first := importCSV(t, sampleCSV)
		require.Equal(t, http.StatusCreated, first.Code)

		second := importCSV(t, sampleCSV)
		assert.Equal(t, http.StatusConflict, second.Code)

		var result struct {
			Added   int `json:"recordsAdded"`
			Skipped int `json:"duplicatesSkipped"`
		}
		require.NoError(t, json.NewDecoder(second.Body).Decode(&result))
		assert.Zero(t, result.Added)
		assert.Equal(t, 4, result.Skipped)

		// no event for an import that added nothing
		assert.Len(t, publisher.messages, 1)
	})

	t.Run("Import_UnknownEmployee", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000, "Ana Lima")

		csv := "date,time,registration,bus_number\n" +
			"2026-03-02,08:00:00,9999,3\n"
		w := importCSV(t, csv)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "9999")
	})

	t.Run("Import_BadHeader", func(t *testing.T) {
		cleanup(t)

		w := importCSV(t, "foo,bar\n1,2\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetAll", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)
		require.Equal(t, http.StatusCreated, importCSV(t, sampleCSV).Code)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var list busaccess.ListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		require.Len(t, list.BusAccesses, 4)
		assert.Equal(t, 4, list.TotalAccesses)
		// chronological order with resolved employee names
		assert.Equal(t, "Ana Lima", list.BusAccesses[0].Employee.Name)
		assert.True(t, list.BusAccesses[0].Timestamp.Before(list.BusAccesses[3].Timestamp))
	})

	t.Run("GetAll_Empty", func(t *testing.T) {
		cleanup(t)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ByEmployee_History", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)
		require.Equal(t, http.StatusCreated, importCSV(t, sampleCSV).Code)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-employee/1000", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var history busaccess.EmployeeHistory
		require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
		assert.Equal(t, int64(1000), history.Registration)
		assert.Equal(t, "Ana Lima", history.Name)
		assert.Equal(t, 3, history.TotalAccesses)
		require.Len(t, history.Accesses, 3)
		assert.Equal(t, int64(12), history.Accesses[0].BusNumber)
	})

	t.Run("ByEmployee_NoRecords", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000, "Ana Lima")

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-employee/1000", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ByBus_GroupedPerEmployee", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)
		require.Equal(t, http.StatusCreated, importCSV(t, sampleCSV).Code)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-bus/12", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report busaccess.BusReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, int64(12), report.BusNumber)
		assert.Equal(t, 3, report.TotalAccesses)
		require.Len(t, report.Employees, 2)
		assert.Equal(t, int64(1000), report.Employees[0].Registration)
		assert.Len(t, report.Employees[0].Accesses, 2)
		assert.Equal(t, int64(1001), report.Employees[1].Registration)
		assert.Len(t, report.Employees[1].Accesses, 1)
	})

	t.Run("ByDate_GroupedPerBusThenEmployee", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)
		require.Equal(t, http.StatusCreated, importCSV(t, sampleCSV).Code)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-date/2026-03-02", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report busaccess.DailyReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, "2026-03-02", report.Date)
		assert.Equal(t, 3, report.TotalAccesses)
		require.Len(t, report.DailyReport, 1)

		bus := report.DailyReport[0]
		assert.Equal(t, int64(12), bus.BusNumber)
		require.Len(t, bus.AccessesByEmployee, 2)
		assert.Equal(t, []string{"07:15:00", "17:40:10"}, bus.AccessesByEmployee[0].Times)
		assert.Equal(t, []string{"07:20:30"}, bus.AccessesByEmployee[1].Times)
	})

	t.Run("ByDate_NoMatches", func(t *testing.T) {
		cleanup(t)
		seedBoth(t)
		require.Equal(t, http.StatusCreated, importCSV(t, sampleCSV).Code)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-date/2026-12-25", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var report busaccess.DailyReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Zero(t, report.TotalAccesses)
		assert.Empty(t, report.DailyReport)
	})

	t.Run("ByDate_InvalidDate", func(t *testing.T) {
		cleanup(t)

		req := httptest.NewRequest(http.MethodGet, "/bus-accesses/by-date/25-12-2026", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
