package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/pkg/config"
	"github.com/noah-isme/booking-page/pkg/jobs"
)

var availabilityTracer = otel.Tracer("booking-page.internal.service.availability")

const availabilityJobType = "availability_fetch"

// FetchRequest identifies one availability read issued by a page.
type FetchRequest struct {
	PageID  string
	Date    string
	Seq     uint64
	Cookies []*http.Cookie
}

// FetchCallback receives a successful availability read. Failed reads never reach it.
type FetchCallback func(FetchRequest, models.AvailabilityResult)

type availabilityPayload struct {
	req  FetchRequest
	done FetchCallback
}

// AvailabilityService reads taken slots from the booking backend.
type AvailabilityService struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
}

// AvailabilityOption customises the service.
type AvailabilityOption func(*AvailabilityService)

// WithAvailabilityHTTPClient swaps the HTTP client, mostly for tests.
func WithAvailabilityHTTPClient(client *http.Client) AvailabilityOption {
	return func(s *AvailabilityService) {
		s.client = client
	}
}

// NewAvailabilityService builds the fetcher and its worker pool. Call Start before Dispatch.
func NewAvailabilityService(cfg config.BackendConfig, metrics *MetricsService, logger *zap.Logger, opts ...AvailabilityOption) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.AvailabilityPath
	if path == "" {
		path = "/booking/availability"
	}
	s := &AvailabilityService{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + path,
		client:   &http.Client{},
		timeout:  cfg.FetchTimeout,
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = jobs.NewQueue("availability", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.FetchWorkers,
		MaxRetries: cfg.FetchRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the fetch workers.
func (s *AvailabilityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the fetch workers to exit.
func (s *AvailabilityService) Stop() {
	s.queue.Stop()
}

// Running reports whether the fetch workers are up.
func (s *AvailabilityService) Running() bool {
	return s.queue.Running()
}

// Dispatch queues a read for req.Date and returns immediately. Empty dates are ignored.
func (s *AvailabilityService) Dispatch(req FetchRequest, done FetchCallback) error {
	if strings.TrimSpace(req.Date) == "" {
		return nil
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s-%d", req.PageID, req.Seq),
		Type:    availabilityJobType,
		Payload: availabilityPayload{req: req, done: done},
	})
}

func (s *AvailabilityService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(availabilityPayload)
	if !ok {
		return fmt.Errorf("availability: unexpected payload %T", job.Payload)
	}
	result, err := s.Fetch(ctx, payload.req.Date, payload.req.Cookies)
	if err != nil {
		s.logger.Warn("availability fetch failed",
			zap.String("page_id", payload.req.PageID),
			zap.String("date", payload.req.Date),
			zap.Uint64("seq", payload.req.Seq),
			zap.Error(err))
		return err
	}
	if result != nil && payload.done != nil {
		payload.done(payload.req, *result)
	}
	return nil
}

// Fetch performs the read synchronously. An empty date issues no request and returns nil.
func (s *AvailabilityService) Fetch(ctx context.Context, date string, cookies []*http.Cookie) (*models.AvailabilityResult, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, nil
	}

	ctx, span := availabilityTracer.Start(ctx, "booking.availability.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("booking.date", date))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.fetch(ctx, date, cookies)
	s.metrics.ObserveFetch(err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("booking.taken_slots", len(result.Times)))
	return result, nil
}

func (s *AvailabilityService) fetch(ctx context.Context, date string, cookies []*http.Cookie) (*models.AvailabilityResult, error) {
	u := s.endpoint + "?" + url.Values{"date": {date}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("availability: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("availability: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Times *[]string `json:"times"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("availability: decode response: %w", err)
	}
	if payload.Times == nil {
		return nil, errors.New("availability: response has no times list")
	}

	return &models.AvailabilityResult{Date: date, Times: *payload.Times}, nil
}
