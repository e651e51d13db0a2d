package employee

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"hr-service/internal/csvutil"
	"hr-service/internal/httputil"
	"hr-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/employees", h.CreateEmployee)
	router.Get("/employees", h.GetAllEmployees)
	router.Get("/employees/search", h.SearchEmployees)
	router.Put("/employees/{registration}", h.UpdateEmployee)
	router.Delete("/employees/{registration}", h.DeleteEmployee)
	router.Post("/test/employees/import", h.ImportEmployees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Normalize()
	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("employee validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "creating employee", "name", req.Name)
	created, err := h.service.CreateEmployee(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.metrics.RecordEmployeeCreated(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, created.ToResponse())
}

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all employees")

	employees, err := h.service.GetAllEmployees(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.metrics.RecordEmployeesListViewed(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"employees": ToResponses(employees),
	})
}

// SearchEmployees matches on registration, name or CPF with OR
// semantics: rows matching any provided criterion are returned.
func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	var filter SearchFilter

	if raw := r.URL.Query().Get("registration"); raw != "" {
		registration, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid registration")
			return
		}
		filter.Registration = registration
	}
	if raw := r.URL.Query().Get("cpf"); raw != "" {
		cpf, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid cpf")
			return
		}
		filter.CPF = cpf
	}
	filter.Name = r.URL.Query().Get("name")

	h.logger.InfoContext(r.Context(), "searching employees",
		"registration", filter.Registration, "name", filter.Name)

	employees, err := h.service.SearchEmployees(r.Context(), filter)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			httputil.RespondWithError(w, http.StatusBadRequest,
				"at least one search criterion is required: registration, name or cpf")
			return
		}
		h.handleServiceError(w, err)
		return
	}

	h.metrics.RecordEmployeeViewed(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"employees": ToResponses(employees),
	})
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	registration, err := strconv.ParseInt(chi.URLParam(r, "registration"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid registration")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Normalize()
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "updating employee", "registration", registration)
	updated, err := h.service.UpdateEmployee(r.Context(), registration, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, updated.ToResponse())
}

// DeleteEmployee removes an employee; name and cpf query parameters must
// match the stored record as a confirmation.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	registration, err := strconv.ParseInt(chi.URLParam(r, "registration"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid registration")
		return
	}

	name := r.URL.Query().Get("name")
	cpfRaw := r.URL.Query().Get("cpf")
	if name == "" || cpfRaw == "" {
		httputil.RespondWithError(w, http.StatusBadRequest,
			"name and cpf query parameters are required to confirm deletion")
		return
	}
	cpf, err := strconv.ParseInt(cpfRaw, 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid cpf")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting employee", "registration", registration)
	deletedName, err := h.service.DeleteEmployee(r.Context(), registration, name, cpf)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "employee removed successfully",
		"name":    deletedName,
	})
}

// ImportEmployees is a test-only route that seeds the database from an
// uploaded CSV file.
func (h *Handler) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	file, err := csvutil.FormFile(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	result, err := h.service.ImportCSV(r.Context(), file)
	if err != nil {
		var headerErr *csvutil.HeaderError
		if errors.As(err, &headerErr) {
			httputil.RespondWithError(w, http.StatusBadRequest, headerErr.Error())
			return
		}
		h.handleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if len(result.Errors) > 0 {
		status = http.StatusBadRequest
	}
	httputil.RespondWithJSON(w, status, result)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		h.logger.Info("employee not found")
		httputil.RespondWithError(w, http.StatusNotFound, "employee not found")
	case errors.Is(err, ErrCPFExists):
		h.logger.Info("duplicate CPF")
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyUpdate):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
