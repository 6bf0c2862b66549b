package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionPostsFormWithoutFollowingRedirect(t *testing.T) {
	var followed int32
	mux := http.NewServeMux()
	mux.HandleFunc("/booking/new", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ana@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "2026-10-20", r.PostForm.Get("appointment_date"))
		assert.Equal(t, "Thesis review & defence", r.PostForm.Get("purpose"))
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}
		http.Redirect(w, r, "/booking/success", http.StatusFound)
	})
	mux.HandleFunc("/booking/success", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&followed, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewSubmissionService(backendConfig(srv.URL), nil, nil)
	outcome, err := svc.Submit(context.Background(), map[string]string{
		"email":            "ana@example.com",
		"appointment_date": "2026-10-20",
		"purpose":          "Thesis review & defence",
	}, []*http.Cookie{{Name: "session", Value: "abc"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, outcome.StatusCode)
	assert.Equal(t, "/booking/success", outcome.Location)
	assert.Zero(t, atomic.LoadInt32(&followed))
}

func TestSubmissionRelaysRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	outcome, err := NewSubmissionService(backendConfig(srv.URL), nil, nil).Submit(context.Background(), map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, outcome.StatusCode)
	assert.Empty(t, outcome.Location)
}

func TestSubmissionTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSubmissionService(backendConfig(url), nil, nil).Submit(context.Background(), map[string]string{"email": "a@b.co"}, nil)
	assert.Error(t, err)
}
