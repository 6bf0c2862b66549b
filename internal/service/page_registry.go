package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/booking-page/pkg/errors"
)

// PageRegistry hosts the live booking pages keyed by id and expires idle ones.
type PageRegistry struct {
	mu      sync.RWMutex
	pages   map[string]*PageController
	factory *PageFactory
	deps    PageDeps
	ttl     time.Duration
	clock   Clock
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPageRegistry constructs the registry. A non-positive ttl keeps pages until closed.
func NewPageRegistry(factory *PageFactory, deps PageDeps, ttl time.Duration) *PageRegistry {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &PageRegistry{
		pages:   make(map[string]*PageController),
		factory: factory,
		deps:    deps,
		ttl:     ttl,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// Open renders a new booking page for the visitor.
func (r *PageRegistry) Open(currentUserEmail string, cookies []*http.Cookie) *PageController {
	now := r.clock.Now()
	page := r.factory.Build(uuid.NewString(), now, currentUserEmail)
	ctrl := NewPageController(page, cookies, r.deps)

	r.mu.Lock()
	r.pages[page.ID] = ctrl
	count := len(r.pages)
	r.mu.Unlock()

	r.metrics.SetActivePages(count)
	r.logger.Info("booking page opened", zap.String("page_id", page.ID))
	return ctrl
}

// Get returns the page and records the visit.
func (r *PageRegistry) Get(id string) (*PageController, error) {
	r.mu.RLock()
	ctrl, ok := r.pages[id]
	r.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrPageNotFound
	}
	ctrl.Touch(r.clock.Now())
	return ctrl, nil
}

// Close tears the page down. Fetches still in flight for it are discarded on arrival.
func (r *PageRegistry) Close(id string) error {
	r.mu.Lock()
	_, ok := r.pages[id]
	delete(r.pages, id)
	count := len(r.pages)
	r.mu.Unlock()

	if !ok {
		return appErrors.ErrPageNotFound
	}
	r.metrics.SetActivePages(count)
	r.logger.Info("booking page closed", zap.String("page_id", id))
	return nil
}

// Len returns the number of hosted pages.
func (r *PageRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// Sweep drops pages idle for longer than the ttl and returns how many were removed.
func (r *PageRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for id, ctrl := range r.pages {
		if ctrl.LastSeen().Before(cutoff) {
			delete(r.pages, id)
			removed++
		}
	}
	count := len(r.pages)
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.SetActivePages(count)
		r.logger.Info("idle booking pages expired", zap.Int("removed", removed), zap.Int("remaining", count))
	}
	return removed
}

// Run sweeps on a ticker until ctx is cancelled.
func (r *PageRegistry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
