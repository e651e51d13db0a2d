package busaccess

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hr-service/internal/csvutil"
	"hr-service/internal/httputil"
	"hr-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/bus-accesses", h.GetAllAccesses)
	router.Get("/bus-accesses/by-employee/{registration}", h.GetAccessesByEmployee)
	router.Get("/bus-accesses/by-bus/{busNumber}", h.GetAccessesByBus)
	router.Get("/bus-accesses/by-date/{date}", h.GetAccessesByDate)
	router.Post("/test/bus-accesses/import", h.ImportAccesses)
}

func (h *Handler) GetAllAccesses(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all bus accesses")

	list, err := h.service.GetAll(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) GetAccessesByEmployee(w http.ResponseWriter, r *http.Request) {
	registration, err := strconv.ParseInt(chi.URLParam(r, "registration"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid registration")
		return
	}

	h.logger.InfoContext(r.Context(), "fetching access history", "registration", registration)

	history, err := h.service.GetHistoryByEmployee(r.Context(), registration)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, history)
}

func (h *Handler) GetAccessesByBus(w http.ResponseWriter, r *http.Request) {
	busNumber, err := strconv.ParseInt(chi.URLParam(r, "busNumber"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid bus number")
		return
	}

	h.logger.InfoContext(r.Context(), "fetching bus report", "bus", busNumber)

	report, err := h.service.GetReportByBus(r.Context(), busNumber)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) GetAccessesByDate(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	h.logger.InfoContext(r.Context(), "fetching daily report", "date", day.Format("2006-01-02"))

	report, err := h.service.GetReportByDate(r.Context(), day)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, report)
}

// ImportAccesses is a test-only bulk load. The status reflects the
// outcome: 201 when rows were added, 409 when everything was a
// duplicate, 400 when only errors remain.
func (h *Handler) ImportAccesses(w http.ResponseWriter, r *http.Request) {
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

	h.metrics.RecordAccessRowsImported(r.Context(), int64(result.Added))

	status := http.StatusOK
	switch {
	case result.Added > 0:
		status = http.StatusCreated
	case result.Skipped > 0:
		status = http.StatusConflict
	case len(result.Errors) > 0:
		status = http.StatusBadRequest
	}
	httputil.RespondWithJSON(w, status, result)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoAccessRecords):
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
