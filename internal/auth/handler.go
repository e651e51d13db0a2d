package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"hr-service/internal/httputil"

	"github.com/go-chi/chi/v5"
)

var (
	ErrMissingAuthHeader   = errors.New("authorization header is expected")
	ErrMalformedAuthHeader = errors.New("authorization header must be a Bearer token")
)

type Handler struct {
	demoToken string
	logger    *slog.Logger
}

func NewHandler(demoToken string, logger *slog.Logger) *Handler {
	return &Handler{
		demoToken: demoToken,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/auth/demo-token", h.DemoToken)
}

type DemoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// DemoToken returns the static evaluation token used to exercise protected
// routes from the documentation UI without a full identity-provider flow.
func (h *Handler) DemoToken(w http.ResponseWriter, r *http.Request) {
	if h.demoToken == "" {
		h.logger.Error("demo token requested but DEMO_TOKEN is not configured")
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "demo token is not configured")
		return
	}

	h.logger.Info("demo token issued")
	httputil.RespondWithJSON(w, http.StatusOK, DemoTokenResponse{AccessToken: h.demoToken})
}
