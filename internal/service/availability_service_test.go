package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/pkg/config"
)

func newAvailabilityServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func backendConfig(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:          baseURL,
		AvailabilityPath: "/booking/availability",
		FormActionPath:   "/booking/new",
		FetchWorkers:     2,
	}
}

func TestAvailabilityFetchDecodesTimes(t *testing.T) {
	srv, _ := newAvailabilityServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booking/availability", r.URL.Path)
		assert.Equal(t, "2026-10-20", r.URL.Query().Get("date"))
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"times":["10:00","14:00"]}`))
	})

	svc := NewAvailabilityService(backendConfig(srv.URL), NewMetricsService(), nil)
	result, err := svc.Fetch(context.Background(), "2026-10-20", []*http.Cookie{{Name: "session", Value: "abc"}})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "2026-10-20", result.Date)
	assert.Equal(t, []string{"10:00", "14:00"}, result.Times)
}

func TestAvailabilityFetchEmptyDateSkipsRequest(t *testing.T) {
	srv, hits := newAvailabilityServer(t, func(w http.ResponseWriter, r *http.Request) {})

	svc := NewAvailabilityService(backendConfig(srv.URL), nil, nil)
	result, err := svc.Fetch(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestAvailabilityFetchFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html></html>"))
		},
		"missing times": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"slots":[]}`))
		},
	}

	metrics := NewMetricsService()
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newAvailabilityServer(t, handler)
			svc := NewAvailabilityService(backendConfig(srv.URL), metrics, nil)
			result, err := svc.Fetch(context.Background(), "2026-10-20", nil)
			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(3), snap.AvailabilityFetches)
	assert.Equal(t, uint64(3), snap.AvailabilityFailures)
}

func TestAvailabilityFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newAvailabilityServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	cfg := backendConfig(srv.URL)
	cfg.FetchTimeout = 50 * time.Millisecond
	svc := NewAvailabilityService(cfg, nil, nil)

	_, err := svc.Fetch(context.Background(), "2026-10-20", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAvailabilityDispatchDeliversResult(t *testing.T) {
	srv, _ := newAvailabilityServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"times":["%s"]}`, "09:30")
	})

	svc := NewAvailabilityService(backendConfig(srv.URL), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	got := make(chan models.AvailabilityResult, 1)
	req := FetchRequest{PageID: "page-1", Date: "2026-10-20", Seq: 7}
	require.NoError(t, svc.Dispatch(req, func(r FetchRequest, result models.AvailabilityResult) {
		assert.Equal(t, uint64(7), r.Seq)
		got <- result
	}))

	select {
	case result := <-got:
		assert.Equal(t, []string{"09:30"}, result.Times)
	case <-time.After(2 * time.Second):
		t.Fatal("availability callback not invoked")
	}
}

func TestAvailabilityDispatchFailureIsSilent(t *testing.T) {
	srv, hits := newAvailabilityServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	svc := NewAvailabilityService(backendConfig(srv.URL), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	var called int32
	require.NoError(t, svc.Dispatch(FetchRequest{PageID: "page-1", Date: "2026-10-20", Seq: 1}, func(FetchRequest, models.AvailabilityResult) {
		atomic.AddInt32(&called, 1)
	}))

	require.Eventually(t, func() bool { return atomic.LoadInt32(hits) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return atomic.LoadInt32(&called) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestAvailabilityDispatchIgnoresEmptyDate(t *testing.T) {
	svc := NewAvailabilityService(backendConfig("http://127.0.0.1:1"), nil, nil)
	// Not started: an enqueue would fail, so a nil error proves nothing was queued.
	assert.NoError(t, svc.Dispatch(FetchRequest{PageID: "page-1", Date: ""}, nil))
	assert.Error(t, svc.Dispatch(FetchRequest{PageID: "page-1", Date: "2026-10-20"}, nil))
}
