package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/validation"
	"github.com/noah-isme/booking-page/pkg/config"
)

// Thursday afternoon; the first bookable day is Saturday 2026-10-17.
var bookingNow = time.Date(2026, time.October, 15, 15, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingDispatcher keeps every dispatched request so tests can answer them in any order.
type recordingDispatcher struct {
	mu       sync.Mutex
	requests []FetchRequest
	done     []FetchCallback
}

func (d *recordingDispatcher) Dispatch(req FetchRequest, done FetchCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	d.done = append(d.done, done)
	return nil
}

func (d *recordingDispatcher) answer(i int, times ...string) {
	d.mu.Lock()
	req, done := d.requests[i], d.done[i]
	d.mu.Unlock()
	done(req, models.AvailabilityResult{Date: req.Date, Times: times})
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

type stubSubmitter struct {
	values  map[string]string
	cookies []*http.Cookie
	outcome *models.SubmissionOutcome
	err     error
	calls   int
}

func (s *stubSubmitter) Submit(ctx context.Context, values map[string]string, cookies []*http.Cookie) (*models.SubmissionOutcome, error) {
	s.calls++
	s.values = values
	s.cookies = cookies
	if s.err != nil {
		return nil, s.err
	}
	if s.outcome != nil {
		return s.outcome, nil
	}
	return &models.SubmissionOutcome{StatusCode: http.StatusFound, Location: "/booking/success"}, nil
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		LeadDays:         2,
		OpenHour:         9,
		CloseHour:        18,
		SlotStart:        "09:00",
		SlotEnd:          "17:30",
		SlotStep:         30 * time.Minute,
		Timezone:         "UTC",
		PurposeMaxLength: 1000,
	}
}

func testRules() validation.Rules {
	rules := validation.DefaultRules()
	rules.Location = time.UTC
	return rules
}

type controllerFixture struct {
	ctrl       *PageController
	page       *models.Page
	clock      *fakeClock
	dispatcher *recordingDispatcher
	submitter  *stubSubmitter
	metrics    *MetricsService
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	v, err := validation.New(testRules(), nil)
	require.NoError(t, err)
	factory, err := NewPageFactory(testBookingConfig(), testRules())
	require.NoError(t, err)

	clock := newFakeClock(bookingNow)
	metrics := NewMetricsService()
	dispatcher := &recordingDispatcher{}
	submitter := &stubSubmitter{}
	page := factory.Build("page-1", clock.Now(), "")

	ctrl := NewPageController(page, []*http.Cookie{{Name: "session", Value: "abc"}}, PageDeps{
		Gatekeeper: NewFormGatekeeper(v, metrics, nil),
		Presenter:  NewSlotPresenter(),
		Notifier:   NewPageNotifier(3*time.Second, clock),
		Fetcher:    dispatcher,
		Submitter:  submitter,
		Clock:      clock,
		Metrics:    metrics,
	})
	return &controllerFixture{ctrl: ctrl, page: page, clock: clock, dispatcher: dispatcher, submitter: submitter, metrics: metrics}
}
