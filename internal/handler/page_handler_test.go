package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-page/internal/dto"
	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/service"
	"github.com/noah-isme/booking-page/internal/validation"
	"github.com/noah-isme/booking-page/pkg/config"
	appErrors "github.com/noah-isme/booking-page/pkg/errors"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// inlineDispatcher answers every availability request from a canned table.
type inlineDispatcher struct {
	mu    sync.Mutex
	taken map[string][]string
	calls []service.FetchRequest
}

func (d *inlineDispatcher) Dispatch(req service.FetchRequest, done service.FetchCallback) error {
	d.mu.Lock()
	d.calls = append(d.calls, req)
	times := d.taken[req.Date]
	d.mu.Unlock()
	go done(req, models.AvailabilityResult{Date: req.Date, Times: times})
	return nil
}

type envelope[T any] struct {
	Data  T                `json:"data"`
	Error *appErrors.Error `json:"error"`
}

type pageAPI struct {
	t          *testing.T
	router     *gin.Engine
	backend    *httptest.Server
	posted     url.Values
	dispatcher *inlineDispatcher
}

func newPageAPI(t *testing.T) *pageAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := &pageAPI{t: t, dispatcher: &inlineDispatcher{taken: map[string][]string{"2026-10-20": {"10:00", "14:00"}}}}

	api.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		api.posted = r.PostForm
		http.Redirect(w, r, "/booking/success", http.StatusFound)
	}))
	t.Cleanup(api.backend.Close)

	rules := validation.DefaultRules()
	rules.Location = time.UTC
	validate := validator.New()
	require.NoError(t, validation.RegisterTags(validate))
	v, err := validation.New(rules, validate)
	require.NoError(t, err)

	booking := config.BookingConfig{LeadDays: 2, OpenHour: 9, CloseHour: 18, SlotStart: "09:00", SlotEnd: "17:30", SlotStep: 30 * time.Minute, PurposeMaxLength: 1000}
	factory, err := service.NewPageFactory(booking, rules)
	require.NoError(t, err)

	clock := fixedClock{now: time.Date(2026, time.October, 15, 15, 30, 0, 0, time.UTC)}
	metrics := service.NewMetricsService()
	backendCfg := config.BackendConfig{BaseURL: api.backend.URL, FormActionPath: "/booking/new"}
	registry := service.NewPageRegistry(factory, service.PageDeps{
		Gatekeeper: service.NewFormGatekeeper(v, metrics, nil),
		Presenter:  service.NewSlotPresenter(),
		Notifier:   service.NewPageNotifier(3*time.Second, clock),
		Fetcher:    api.dispatcher,
		Submitter:  service.NewSubmissionService(backendCfg, nil, nil),
		Clock:      clock,
		Metrics:    metrics,
	}, 30*time.Minute)

	api.router = gin.New()
	NewPageHandler(registry, validate).Register(api.router.Group("/api/v1"))
	return api
}

func (a *pageAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (a *pageAPI) open() dto.PageView {
	a.t.Helper()
	w := a.do(http.MethodPost, "/pages", dto.OpenPageRequest{CurrentUserEmail: "ana@example.com"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.PageView](a.t, w).Data
}

func TestPageHandlerOpenRendersForm(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()

	assert.NotEmpty(t, page.ID)
	assert.Equal(t, "2026-10-17", page.MinDate)
	assert.Len(t, page.Slots, 18)
	assert.Equal(t, "0/1000", page.CharCounter.Text)
	require.Len(t, page.Fields, 5)
	assert.Equal(t, "ana@example.com", page.Fields[0].Value)
	assert.Equal(t, "2026-10-17", page.Fields[1].Min)
}

func TestPageHandlerOpenWithoutBody(t *testing.T) {
	api := newPageAPI(t)
	w := api.do(http.MethodPost, "/pages", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, decode[dto.PageView](t, w).Data.Fields[0].Value)
}

func TestPageHandlerOpenRejectsBadPrefill(t *testing.T) {
	api := newPageAPI(t)
	w := api.do(http.MethodPost, "/pages", dto.OpenPageRequest{CurrentUserEmail: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageHandlerUnknownPage(t *testing.T) {
	api := newPageAPI(t)
	w := api.do(http.MethodGet, "/pages/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PAGE_NOT_FOUND", decode[dto.PageView](t, w).Error.Code)
}

func TestPageHandlerUnknownField(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()
	w := api.do(http.MethodPost, "/pages/"+page.ID+"/fields/phone/input", dto.FieldEventRequest{Value: "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_FIELD", decode[dto.PageView](t, w).Error.Code)
}

func TestPageHandlerDateChangeMarksTakenSlots(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()

	w := api.do(http.MethodPost, "/pages/"+page.ID+"/fields/appointment_date/change", dto.FieldEventRequest{Value: "2026-10-20"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		w := api.do(http.MethodGet, "/pages/"+page.ID, nil)
		return decode[dto.PageView](t, w).Data.TakenBadge == "10:00, 14:00"
	}, time.Second, 10*time.Millisecond)

	w = api.do(http.MethodPost, "/pages/"+page.ID+"/slots/10:00/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[dto.SlotSelectResponse](t, w).Data.Selected)

	w = api.do(http.MethodPost, "/pages/"+page.ID+"/slots/11:00/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.SlotSelectResponse](t, w).Data.Selected)

	require.Len(t, api.dispatcher.calls, 1)
	require.Len(t, api.dispatcher.calls[0].Cookies, 1)
	assert.Equal(t, "abc", api.dispatcher.calls[0].Cookies[0].Value)
}

func TestPageHandlerSubmitFlow(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()

	w := api.do(http.MethodPost, "/pages/"+page.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	blocked := decode[dto.SubmitResponse](t, w).Data
	assert.True(t, blocked.Prevented)
	assert.ElementsMatch(t, []string{"appointment_date", "appointment_time", "purpose"}, blocked.InvalidFields)
	assert.Nil(t, api.posted)

	for field, value := range map[string]string{
		"appointment_date": "2026-10-21",
		"appointment_time": "11:30",
		"purpose":          "Thesis review",
	} {
		w := api.do(http.MethodPost, "/pages/"+page.ID+"/fields/"+field+"/change", dto.FieldEventRequest{Value: value})
		require.Equal(t, http.StatusOK, w.Code, field)
	}

	w = api.do(http.MethodPost, "/pages/"+page.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sent := decode[dto.SubmitResponse](t, w).Data
	assert.True(t, sent.Submitted)
	assert.Equal(t, http.StatusFound, sent.Status)
	assert.Equal(t, "/booking/success", sent.Location)
	assert.Equal(t, "ana@example.com", api.posted.Get("email"))
	assert.Equal(t, "11:30", api.posted.Get("appointment_time"))
	assert.Equal(t, "meet", api.posted.Get("platform"))
}

func TestPageHandlerSubmitBackendDown(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()
	for field, value := range map[string]string{
		"appointment_date": "2026-10-21",
		"appointment_time": "11:30",
		"purpose":          "Thesis review",
	} {
		api.do(http.MethodPost, "/pages/"+page.ID+"/fields/"+field+"/input", dto.FieldEventRequest{Value: value})
	}
	api.backend.Close()

	w := api.do(http.MethodPost, "/pages/"+page.ID+"/submit", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "BAD_GATEWAY", decode[dto.SubmitResponse](t, w).Error.Code)
}

func TestPageHandlerClose(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()

	w := api.do(http.MethodDelete, "/pages/"+page.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/pages/"+page.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageHandlerFieldEventRequiresJSON(t *testing.T) {
	api := newPageAPI(t)
	page := api.open()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pages/"+page.ID+"/fields/email/input", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
