package auth_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hr-service/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoToken = "demo-token-for-tests"

func TestAuth_Shared(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing")
	defer os.Unsetenv("JWT_SECRET")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	router := chi.NewRouter()
	auth.NewHandler(demoToken, logger).RegisterRoutes(router)

	// one protected probe route behind the middleware
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(demoToken, logger))
		r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
			subject, _ := auth.GetSubject(r.Context())
			w.Write([]byte(subject))
		})
	})

	probe := func(t *testing.T, authorization string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("DemoToken_Issued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/demo-token", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response auth.DemoTokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, demoToken, response.AccessToken)
	})

	t.Run("Probe_NoToken", func(t *testing.T) {
		w := probe(t, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Probe_MalformedHeader", func(t *testing.T) {
		w := probe(t, "Basic abc123")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Probe_DemoToken", func(t *testing.T) {
		w := probe(t, "Bearer "+demoToken)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "demo|test-user", w.Body.String())
	})

	t.Run("Probe_ValidJWT", func(t *testing.T) {
		token, err := auth.GenerateAccessToken("user-42", "user42@example.com", time.Minute)
		require.NoError(t, err)

		w := probe(t, "Bearer "+token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
	})

	t.Run("Probe_ExpiredJWT", func(t *testing.T) {
		token, err := auth.GenerateAccessToken("user-42", "user42@example.com", -time.Minute)
		require.NoError(t, err)

		w := probe(t, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Probe_GarbageToken", func(t *testing.T) {
		w := probe(t, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing")
	defer os.Unsetenv("JWT_SECRET")

	token, err := auth.GenerateAccessToken("subject-1", "a@b.c", time.Minute)
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)
}
