package note_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hr-service/internal/employee"
	"hr-service/internal/metrics"
	"hr-service/internal/note"
	"hr-service/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func seedEmployee(t *testing.T, db *bun.DB, registration int64) {
	t.Helper()

	emp := &employee.Employee{
		Registration:   registration,
		Name:           "Note Owner",
		CPF:            registration * 11,
		IdentityNumber: 123,
		BirthDate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:         "M",
		Address:        "Rua X",
		PrimaryPhone:   "11 90000-0000",
		Position:       "Clerk",
		Salary:         3000,
		CostCenter:     "CC-1",
		Department:     "Ops",
		ManagerName:    "Chef",
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         "A",
		UpdatedAt:      time.Now(),
	}
	_, err := db.NewInsert().Model(emp).Exec(context.Background())
	require.NoError(t, err)
}

func TestNoteHandler_Shared(t *testing.T) {
	db := testdb.Setup(t)
	testdb.RunMigrations(t, db, (*employee.Employee)(nil), (*note.Note)(nil))

	mockMetrics := metrics.NewMock()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	employeeRepo := employee.NewRepository(db, mockMetrics)
	noteRepo := note.NewRepository(db, mockMetrics)
	service := note.NewService(noteRepo, employeeRepo, logger)
	handler := note.NewHandler(service, logger, mockMetrics)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	cleanup := func(t *testing.T) {
		testdb.CleanupTables(t, db, "notes", "employees")
	}

	t.Run("Add_Success", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)

		body, _ := json.Marshal(map[string]interface{}{
			"text":                 "Completed onboarding",
			"category":             "HR",
			"employeeRegistration": 1000,
		})
		req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created note.Note
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Completed onboarding", created.Text)
		assert.Equal(t, int64(1000), created.EmployeeRegistration)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("Add_UnknownEmployee", func(t *testing.T) {
		cleanup(t)

		body, _ := json.Marshal(map[string]interface{}{
			"text":                 "orphan note",
			"employeeRegistration": 4242,
		})
		req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Add_MissingText", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)

		body, _ := json.Marshal(map[string]interface{}{
			"employeeRegistration": 1000,
		})
		req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update_Success", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)

		created, err := noteRepo.Create(context.Background(), &note.Note{
			Text:                 "initial text",
			Category:             "HR",
			EmployeeRegistration: 1000,
		})
		require.NoError(t, err)

		body, _ := json.Marshal(map[string]interface{}{
			"text":                 "revised text",
			"employeeRegistration": 1000,
		})
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/notes/%d", created.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated note.Note
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, "revised text", updated.Text)
		assert.Equal(t, "HR", updated.Category) // untouched
	})

	t.Run("Update_WrongEmployeePair", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)
		seedEmployee(t, db, 1001)

		created, err := noteRepo.Create(context.Background(), &note.Note{
			Text:                 "belongs to 1000",
			EmployeeRegistration: 1000,
		})
		require.NoError(t, err)

		body, _ := json.Marshal(map[string]interface{}{
			"text":                 "hijack attempt",
			"employeeRegistration": 1001,
		})
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/notes/%d", created.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Update_Empty", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)

		created, err := noteRepo.Create(context.Background(), &note.Note{
			Text:                 "unchanged",
			EmployeeRegistration: 1000,
		})
		require.NoError(t, err)

		body, _ := json.Marshal(map[string]interface{}{
			"employeeRegistration": 1000,
		})
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/notes/%d", created.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ImportCSV_SkipsUnknownEmployees", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000)

		csv := "employee_registration,category,text\n" +
			"1000,HR,first note\n" +
			"9999,HR,orphan note\n" +
			"1000,,second note\n"

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "notes.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/test/notes/import", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code) // one row error

		var result struct {
			Added   int      `json:"recordsAdded"`
			Skipped int      `json:"duplicatesSkipped"`
			Errors  []string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 2, result.Added)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "9999")

		notes, err := noteRepo.GetByEmployee(context.Background(), 1000)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
	})
}
