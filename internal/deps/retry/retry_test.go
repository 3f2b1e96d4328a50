package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(tries uint) Config {
	return Config{MaxTries: tries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func get(srv *httptest.Server) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		if err != nil {
			return 0, err
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, &StatusError{URL: srv.URL, StatusCode: resp.StatusCode}
		}
		return resp.StatusCode, nil
	}
}

func TestDoServerErrorExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var notified int
	cfg := fastConfig(4)
	cfg.Notify = func(error, time.Duration) { notified++ }

	_, err := Do(context.Background(), cfg, get(srv))
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, 3, notified)
}

func TestDoNotFoundIsAttemptedOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Do(context.Background(), fastConfig(4), get(srv))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDoRecoversAfterTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	code, err := Do(context.Background(), fastConfig(3), get(srv))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int32(2), hits.Load())
}

func TestIsRetriable(t *testing.T) {
	assert.False(t, IsRetriable(nil))
	assert.False(t, IsRetriable(context.Canceled))
	assert.False(t, IsRetriable(&StatusError{StatusCode: 403}))
	assert.True(t, IsRetriable(&StatusError{StatusCode: 429}))
	assert.True(t, IsRetriable(&StatusError{StatusCode: 503}))
	assert.True(t, IsRetriable(errors.New("connection reset by peer")))
}
