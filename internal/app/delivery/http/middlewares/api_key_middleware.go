package middlewares

import (
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/utils"
	"context"
	"net/http"

	"go.uber.org/zap"
)

const (
	HeaderAPIKey = "x-api-key"
)

// APIKeyAuth gates every route behind one shared API key. Only the bcrypt
// hash of the key lives in configuration.
func (m *Middlewares) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(HeaderAPIKey)

		if apiKey == "" || !utils.CheckAPIKeyHash(apiKey, m.InternalConfig.App.APIKeyHash) {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_API_KEY_AUTH_KEY, true)

		m.Log.Info("API Key authentication successful",
			zap.String("ip", r.RemoteAddr),
			zap.String("endpoint", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("user_agent", r.UserAgent()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
