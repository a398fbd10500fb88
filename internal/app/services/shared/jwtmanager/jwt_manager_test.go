package jwtmanager

import (
	"caresync-service/internal/app/config"
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTManager_CreateToken(t *testing.T) {
	manager, err := NewJWTManager(&config.InternalConfig{
		JWT: config.JWT{
			Secret:          "test-secret",
			Issuer:          "caresync-service",
			ExpTimeInMinute: 5,
		},
	}, zap.NewNop())
	require.NoError(t, err)

	t.Run("signs verifiable HS256 tokens", func(t *testing.T) {
		signed, err := manager.CreateToken(context.Background(), "patient-sync")
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
			assert.Equal(t, jwt.SigningMethodHS256, token.Method)
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		assert.Equal(t, "caresync-service", claims["iss"])
		assert.Equal(t, "patient-sync", claims["sub"])

		iat, exp := claims["iat"].(float64), claims["exp"].(float64)
		assert.InDelta(t, 5*60, exp-iat, 1)
	})

	t.Run("rejects a blank subject", func(t *testing.T) {
		_, err := manager.CreateToken(context.Background(), "  ")
		require.Error(t, err)
	})

	t.Run("refuses to start without a secret", func(t *testing.T) {
		_, err := NewJWTManager(&config.InternalConfig{}, zap.NewNop())
		require.Error(t, err)
	})
}
