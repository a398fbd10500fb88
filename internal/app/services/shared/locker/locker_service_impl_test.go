package locker

import (
	"caresync-service/internal/pkg/exceptions"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRedisRepository struct {
	mock.Mock
}

func (m *MockRedisRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRedisRepository) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	args := m.Called(ctx, key, value, exp)
	return args.Error(0)
}

func (m *MockRedisRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRedisRepository) TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, exp)
	return args.Bool(0), args.Error(1)
}

func newTestLockService() (*lockService, *MockRedisRepository) {
	redisRepo := new(MockRedisRepository)
	return &lockService{redisRepo: redisRepo, Log: zap.NewNop()}, redisRepo
}

func TestLockService_TryLock(t *testing.T) {
	t.Run("acquires a free record lock with a fresh holder value", func(t *testing.T) {
		service, redisRepo := newTestLockService()
		redisRepo.On("TrySetNX", mock.Anything, "caresync:lock:patient:local-1", mock.Anything, 30*time.Second).Return(true, nil)

		acquired, lockValue, err := service.TryLock(context.Background(), "caresync:lock:patient:local-1", 30*time.Second)
		require.NoError(t, err)
		assert.True(t, acquired)
		assert.NotEmpty(t, lockValue)
	})

	t.Run("reports a held lock without error", func(t *testing.T) {
		service, redisRepo := newTestLockService()
		redisRepo.On("TrySetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		acquired, lockValue, err := service.TryLock(context.Background(), "caresync:lock:patient:local-1", 30*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)
		assert.Empty(t, lockValue)
	})
}

func TestLockService_Unlock(t *testing.T) {
	t.Run("releases only when the holder value matches", func(t *testing.T) {
		service, redisRepo := newTestLockService()
		redisRepo.On("Get", mock.Anything, "caresync:lock:patient:local-1").Return(fmt.Sprintf("%q", "holder-1"), nil)
		redisRepo.On("Delete", mock.Anything, "caresync:lock:patient:local-1").Return(nil)

		err := service.Unlock(context.Background(), "caresync:lock:patient:local-1", "holder-1")
		require.NoError(t, err)
		redisRepo.AssertExpectations(t)
	})

	t.Run("refuses to release another request's lock", func(t *testing.T) {
		service, redisRepo := newTestLockService()
		redisRepo.On("Get", mock.Anything, mock.Anything).Return(fmt.Sprintf("%q", "someone-else"), nil)

		err := service.Unlock(context.Background(), "caresync:lock:patient:local-1", "holder-1")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		redisRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("an expired lock is already released", func(t *testing.T) {
		service, redisRepo := newTestLockService()
		redisRepo.On("Get", mock.Anything, mock.Anything).Return("", nil)

		err := service.Unlock(context.Background(), "caresync:lock:patient:local-1", "holder-1")
		require.NoError(t, err)
		redisRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
