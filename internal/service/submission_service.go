package service

import (
	"context"
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
	"github.com/noah-isme/booking-page/pkg/middleware/requestid"
)

var submissionTracer = otel.Tracer("booking-page.internal.service.submission")

// SubmissionService forwards a validated booking form to the backend's form action the way
// a browser would: a urlencoded POST whose redirect is handed back rather than followed.
type SubmissionService struct {
	actionURL string
	client    *http.Client
	logger    *zap.Logger
}

// NewSubmissionService builds the forwarder. A nil client gets one bounded by SubmitTimeout.
func NewSubmissionService(cfg config.BackendConfig, client *http.Client, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		timeout := cfg.SubmitTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	noFollow := *client
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	path := cfg.FormActionPath
	if path == "" {
		path = "/booking/new"
	}
	return &SubmissionService{
		actionURL: strings.TrimRight(cfg.BaseURL, "/") + path,
		client:    &noFollow,
		logger:    logger,
	}
}

// Submit posts the form values and reports the backend's status and redirect target.
func (s *SubmissionService) Submit(ctx context.Context, values map[string]string, cookies []*http.Cookie) (*models.SubmissionOutcome, error) {
	ctx, span := submissionTracer.Start(ctx, "booking.form.submit")
	defer span.End()
	span.SetAttributes(attribute.String("booking.action", s.actionURL))

	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.actionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("submit: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("submit: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	s.logger.Info("booking form forwarded", zap.Int("status", resp.StatusCode), zap.String("location", resp.Header.Get("Location")))

	return &models.SubmissionOutcome{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}, nil
}
