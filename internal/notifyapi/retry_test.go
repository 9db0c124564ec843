package notifyapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(RetrierOptions{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
	})
}

func TestDefaultRetrierOptions(t *testing.T) {
	opts := DefaultRetrierOptions()

	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 4*time.Second, opts.InitialInterval)
	assert.Equal(t, 10*time.Second, opts.MaxInterval)
	assert.Equal(t, 2.0, opts.Multiplier)
}

func TestNewRetrier_FillsDefaults(t *testing.T) {
	r := NewRetrier(RetrierOptions{MaxRetries: -1})

	assert.Equal(t, 0, r.MaxRetries())
	assert.Equal(t, 4*time.Second, r.initialInterval)
	assert.Equal(t, 10*time.Second, r.maxInterval)
	assert.Equal(t, 2.0, r.multiplier)
	assert.NotNil(t, r.logger)
}

func TestRetrier_Retry(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		err := fastRetrier(3).Retry(context.Background(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retryable error then success", func(t *testing.T) {
		calls := 0
		err := fastRetrier(3).Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return domain.NewTransportError(http.MethodGet, "/x", http.StatusServiceUnavailable, nil)
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		calls := 0
		err := fastRetrier(3).Retry(context.Background(), func() error {
			calls++
			return domain.NewTransportError(http.MethodPost, "/x", http.StatusConflict, nil)
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.False(t, errors.Is(err, domain.ErrRetriesExhausted))

		var transportErr *domain.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusConflict, transportErr.StatusCode)
	})

	t.Run("exhausted retries are wrapped", func(t *testing.T) {
		calls := 0
		err := fastRetrier(2).Retry(context.Background(), func() error {
			calls++
			return domain.NewTransportError(http.MethodGet, "/x", http.StatusTooManyRequests, nil)
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("zero retries makes a single attempt", func(t *testing.T) {
		calls := 0
		err := fastRetrier(0).Retry(context.Background(), func() error {
			calls++
			return domain.NewTransportError(http.MethodGet, "/x", http.StatusBadGateway, nil)
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := fastRetrier(3).Retry(ctx, func() error {
			return domain.NewTransportError(http.MethodGet, "/x", http.StatusBadGateway, nil)
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryWithValue(t *testing.T) {
	calls := 0
	got, err := RetryWithValue(context.Background(), fastRetrier(3), func() (string, error) {
		calls++
		if calls == 1 {
			return "", domain.NewTransportError(http.MethodGet, "/x", 0, errors.New("connection reset"))
		}
		return "m-1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "m-1", got)
	assert.Equal(t, 2, calls)
}
