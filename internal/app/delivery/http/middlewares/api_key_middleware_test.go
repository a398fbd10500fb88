package middlewares

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/utils"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAPIKeyAuth(t *testing.T) {
	apiKeyHash, err := utils.HashAPIKey("valid-api-key")
	require.NoError(t, err)

	m := NewMiddlewares(zap.NewNop(), &config.InternalConfig{
		App: config.App{APIKeyHash: apiKeyHash},
	})

	nextCalled := false
	var authFlag interface{}
	handler := m.APIKeyAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		authFlag = r.Context().Value(constvars.CONTEXT_API_KEY_AUTH_KEY)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Valid API Key", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		req.Header.Set(HeaderAPIKey, "valid-api-key")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, nextCalled)
		assert.Equal(t, true, authFlag)
	})

	t.Run("Missing API Key", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.False(t, nextCalled)
	})

	t.Run("Invalid API Key", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		req.Header.Set(HeaderAPIKey, "wrong-api-key")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.False(t, nextCalled)
	})
}
