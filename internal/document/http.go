package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hr-service/internal/employee"
	"hr-service/internal/httputil"
	"hr-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// registrations arrive as one string, digits separated by commas or
// semicolons only
var registrationListPattern = regexp.MustCompile(`^\d+(\s*[,;]\s*\d+)*$`)

// EmployeeSource is the slice of the employee repository the document
// handlers need. A nil registrations slice selects everyone, ordered
// by name.
type EmployeeSource interface {
	GetByRegistrations(ctx context.Context, registrations []int64) ([]employee.Employee, error)
}

type BadgeRequest struct {
	Registrations string `json:"registrations" validate:"required"`
}

type Handler struct {
	employees EmployeeSource
	contracts *ContractClient
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewHandler(employees EmployeeSource, contracts *ContractClient, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		employees: employees,
		contracts: contracts,
		validate:  validator.New(),
		logger:    logger,
		metrics:   metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/employees/badges", h.GenerateBadges)
	router.Get("/employees/badges", h.GenerateAllBadges)
	router.Post("/contracts", h.GenerateContract)
}

// GenerateBadges renders badge labels for the requested registrations.
// Registrations that do not exist are reported in the
// X-Not-Found-Registrations response header; the PDF still carries the
// ones that do.
func (h *Handler) GenerateBadges(w http.ResponseWriter, r *http.Request) {
	var req BadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := strings.TrimSpace(req.Registrations)
	if !registrationListPattern.MatchString(input) {
		httputil.RespondWithError(w, http.StatusBadRequest,
			"invalid registrations format: use numbers separated by ',' or ';'")
		return
	}

	requested := parseRegistrationList(input)

	h.logger.InfoContext(r.Context(), "generating badges", "requested", len(requested))

	employees, err := h.employees.GetByRegistrations(r.Context(), requested)
	if err != nil {
		h.logger.Error("failed to load employees for badges", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(employees) == 0 {
		httputil.RespondWithError(w, http.StatusNotFound,
			"none of the provided registrations were found")
		return
	}

	notFound := missingRegistrations(requested, employees)
	if len(notFound) > 0 {
		w.Header().Set("X-Not-Found-Registrations", joinRegistrations(notFound))
		w.Header().Set("Access-Control-Expose-Headers", "X-Not-Found-Registrations")
	}

	h.writeBadgePDF(w, r, employees, "badges.pdf")
}

// GenerateAllBadges renders badge labels for every employee, ordered
// by name.
func (h *Handler) GenerateAllBadges(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "generating badges for all employees")

	employees, err := h.employees.GetByRegistrations(r.Context(), nil)
	if err != nil {
		h.logger.Error("failed to load employees for badges", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(employees) == 0 {
		httputil.RespondWithError(w, http.StatusNotFound, "no employees found")
		return
	}

	h.writeBadgePDF(w, r, employees, "badges_all_employees.pdf")
}

func (h *Handler) writeBadgePDF(w http.ResponseWriter, r *http.Request, employees []employee.Employee, filename string) {
	badges := make([]BadgeEmployee, 0, len(employees))
	for _, emp := range employees {
		badges = append(badges, BadgeEmployee{
			Registration: emp.Registration,
			Name:         emp.Name,
		})
	}

	pdf, err := GenerateBadgePDF(badges)
	if err != nil {
		h.logger.Error("badge PDF generation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "failed to generate the badge PDF")
		return
	}

	h.metrics.RecordBadgePDFGenerated(r.Context())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// GenerateContract forwards the contract form to the templating
// service and relays the download URL of the rendered PDF.
func (h *Handler) GenerateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "generating contract", "employee", req.EmployeeName)

	downloadURL, err := h.contracts.Generate(r.Context(), &req)
	if err != nil {
		h.handleContractError(w, err)
		return
	}

	h.metrics.RecordContractGenerated(r.Context())

	httputil.RespondWithJSON(w, http.StatusOK, ContractResponse{DownloadURL: downloadURL})
}

func (h *Handler) handleContractError(w http.ResponseWriter, err error) {
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		httputil.RespondWithError(w, http.StatusBadGateway, upstream.Error())
	case errors.Is(err, ErrUpstreamUnreachable):
		httputil.RespondWithError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, ErrContractNotConfigured):
		h.logger.Error("contract service not configured")
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("contract generation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseRegistrationList(input string) []int64 {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';'
	})

	seen := make(map[int64]bool, len(parts))
	registrations := make([]int64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || seen[value] {
			continue
		}
		seen[value] = true
		registrations = append(registrations, value)
	}
	return registrations
}

func missingRegistrations(requested []int64, found []employee.Employee) []int64 {
	present := make(map[int64]bool, len(found))
	for _, emp := range found {
		present[emp.Registration] = true
	}

	var missing []int64
	for _, registration := range requested {
		if !present[registration] {
			missing = append(missing, registration)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func joinRegistrations(registrations []int64) string {
	parts := make([]string, 0, len(registrations))
	for _, registration := range registrations {
		parts = append(parts, strconv.FormatInt(registration, 10))
	}
	return strings.Join(parts, ", ")
}
