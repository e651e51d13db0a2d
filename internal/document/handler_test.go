package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hr-service/internal/document"
	"hr-service/internal/employee"
	"hr-service/internal/metrics"
	"hr-service/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func seedEmployee(t *testing.T, db *bun.DB, registration int64, name string) {
	t.Helper()

	emp := &employee.Employee{
		Registration:   registration,
		Name:           name,
		CPF:            registration * 17,
		IdentityNumber: 123,
		BirthDate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:         "M",
		Address:        "Rua Z",
		PrimaryPhone:   "11 90000-0000",
		Position:       "Clerk",
		Salary:         3000,
		CostCenter:     "CC-3",
		Department:     "Ops",
		ManagerName:    "Chef",
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         "A",
		UpdatedAt:      time.Now(),
	}
	_, err := db.NewInsert().Model(emp).Exec(context.Background())
	require.NoError(t, err)
}

func newContractPayload() map[string]interface{} {
	return map[string]interface{}{
		"companyName":           "Transporte Urbano LTDA",
		"companyCnpj":           "12.345.678/0001-90",
		"companyStreet":         "Av. Central",
		"companyNumber":         "1500",
		"companyDistrict":       "Centro",
		"companyCity":           "Curitiba",
		"companyState":          "PR",
		"companyZip":            "80000-000",
		"hrRepresentative":      "Carla Mendes",
		"hrRepresentativeCpf":   "111.222.333-44",
		"employeeName":          "Pedro Alves",
		"employeeNationality":   "Brasileiro",
		"employeeMaritalStatus": "Solteiro",
		"employeeCpf":           "555.666.777-88",
		"employeeIdentity":      "9.876.543-2",
		"employeeStreet":        "Rua das Acácias",
		"employeeNumber":        "42",
		"employeeDistrict":      "Jardim",
		"employeeCity":          "Curitiba",
		"employeeState":         "PR",
		"employeeZip":           "81000-000",
		"position":              "Motorista",
		"department":            "Logística",
		"grossSalary":           "4500.5",
		"salaryInWords":         "quatro mil e quinhentos reais e cinquenta centavos",
		"hireDate":              "2024-02-01",
		"hireCity":              "Curitiba",
	}
}

func TestBadgeRoutes_Shared(t *testing.T) {
	db := testdb.Setup(t)
	testdb.RunMigrations(t, db, (*employee.Employee)(nil))

	mockMetrics := metrics.NewMock()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	employeeRepo := employee.NewRepository(db, mockMetrics)
	contracts := document.NewContractClient("http://127.0.0.1:1", "key", "tpl", time.Second, logger)
	handler := document.NewHandler(employeeRepo, contracts, logger, mockMetrics)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	cleanup := func(t *testing.T) {
		testdb.CleanupTables(t, db, "employees")
	}

	postBadges := func(t *testing.T, registrations string) *httptest.ResponseRecorder {
		t.Helper()

		body, _ := json.Marshal(map[string]string{"registrations": registrations})
		req := httptest.NewRequest(http.MethodPost, "/employees/badges", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Post_Success", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000, "Ana Lima")
		seedEmployee(t, db, 1001, "Bruno Costa")

		w := postBadges(t, "1000, 1001")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
		assert.Empty(t, w.Header().Get("X-Not-Found-Registrations"))
	})

	t.Run("Post_ReportsMissingRegistrations", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000, "Ana Lima")

		w := postBadges(t, "1000; 2000, 3000")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
		assert.Equal(t, "2000, 3000", w.Header().Get("X-Not-Found-Registrations"))
		assert.Equal(t, "X-Not-Found-Registrations", w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("Post_NoneFound", func(t *testing.T) {
		cleanup(t)

		w := postBadges(t, "7000")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Post_RejectsMalformedList", func(t *testing.T) {
		cleanup(t)

		for _, input := range []string{"1000,abc", "1000 1001", "1000,,1001", ";1000", "1000;"} {
			w := postBadges(t, input)
			assert.Equal(t, http.StatusBadRequest, w.Code, "input %q", input)
		}
	})

	t.Run("GetAll_Success", func(t *testing.T) {
		cleanup(t)
		seedEmployee(t, db, 1000, "Ana Lima")

		req := httptest.NewRequest(http.MethodGet, "/employees/badges", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("GetAll_NoEmployees", func(t *testing.T) {
		cleanup(t)

		req := httptest.NewRequest(http.MethodGet, "/employees/badges", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestContractRoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mockMetrics := metrics.NewMock()

	newRouter := func(t *testing.T, client *document.ContractClient) chi.Router {
		t.Helper()

		db := testdb.Setup(t)
		testdb.RunMigrations(t, db, (*employee.Employee)(nil))
		handler := document.NewHandler(employee.NewRepository(db, mockMetrics), client, logger, mockMetrics)
		router := chi.NewRouter()
		handler.RegisterRoutes(router)
		return router
	}

	postContract := func(t *testing.T, router chi.Router, payload map[string]interface{}) *httptest.ResponseRecorder {
		t.Helper()

		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Success", func(t *testing.T) {
		var captured map[string]string
		stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/create-pdf", r.URL.Path)
			assert.Equal(t, "tpl-123", r.URL.Query().Get("template_id"))
			assert.Equal(t, "secret-key", r.Header.Get("X-API-KEY"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			json.NewEncoder(w).Encode(map[string]string{
				"download_url": "https://cdn.example.com/contract.pdf",
			})
		}))
		defer stub.Close()

		client := document.NewContractClient(stub.URL, "secret-key", "tpl-123", time.Second, logger)
		router := newRouter(t, client)

		w := postContract(t, router, newContractPayload())

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response document.ContractResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "https://cdn.example.com/contract.pdf", response.DownloadURL)

		// template placeholders are filled with localized formatting
		assert.Equal(t, "Pedro Alves", captured["nome_completo"])
		assert.Equal(t, "4.500,50", captured["salario_bruto"])
		assert.Equal(t, "01/02/2024", captured["data_admissao"])
		assert.Equal(t, "Av. Central, 1500, Centro - Curitiba/PR, CEP: 80000-000", captured["endereco_filial"])
	})

	t.Run("UpstreamRejects", func(t *testing.T) {
		stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"message": "unknown template"})
		}))
		defer stub.Close()

		client := document.NewContractClient(stub.URL, "secret-key", "tpl-123", time.Second, logger)
		router := newRouter(t, client)

		w := postContract(t, router, newContractPayload())

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "unknown template")
	})

	t.Run("UpstreamUnreachable", func(t *testing.T) {
		client := document.NewContractClient("http://127.0.0.1:1", "secret-key", "tpl-123",
			500*time.Millisecond, logger)
		router := newRouter(t, client)

		w := postContract(t, router, newContractPayload())

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("MissingDownloadURL", func(t *testing.T) {
		stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer stub.Close()

		client := document.NewContractClient(stub.URL, "secret-key", "tpl-123", time.Second, logger)
		router := newRouter(t, client)

		w := postContract(t, router, newContractPayload())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		client := document.NewContractClient("", "", "", time.Second, logger)
		router := newRouter(t, client)

		w := postContract(t, router, newContractPayload())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("MissingRequiredFields", func(t *testing.T) {
		client := document.NewContractClient("", "key", "tpl", time.Second, logger)
		router := newRouter(t, client)

		payload := newContractPayload()
		delete(payload, "employeeName")

		w := postContract(t, router, payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
