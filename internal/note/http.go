package note

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
	router.Post("/notes", h.AddNote)
	router.Put("/notes/{id}", h.UpdateNote)
	router.Post("/test/notes/import", h.ImportNotes)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "adding note", "registration", req.EmployeeRegistration)
	created, err := h.service.AddNote(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.metrics.RecordNoteAdded(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "updating note", "id", id)
	updated, err := h.service.UpdateNote(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, updated)
}

// ImportNotes is a test-only route that seeds notes from an uploaded
// CSV file.
func (h *Handler) ImportNotes(w http.ResponseWriter, r *http.Request) {
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
		httputil.RespondWithError(w, http.StatusNotFound, "employee not found")
	case errors.Is(err, ErrNoteNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyUpdate):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
