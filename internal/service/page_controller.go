package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-page/internal/dto"
	"github.com/noah-isme/booking-page/internal/models"
	appErrors "github.com/noah-isme/booking-page/pkg/errors"
)

type availabilityDispatcher interface {
	Dispatch(req FetchRequest, done FetchCallback) error
}

type formSubmitter interface {
	Submit(ctx context.Context, values map[string]string, cookies []*http.Cookie) (*models.SubmissionOutcome, error)
}

// PageDeps are the collaborators shared by every page controller.
type PageDeps struct {
	Gatekeeper *FormGatekeeper
	Presenter  *SlotPresenter
	Notifier   Notifier
	Fetcher    availabilityDispatcher
	Submitter  formSubmitter
	Clock      Clock
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// PageController owns one booking page and handles its events. Each event runs to
// completion under the page lock; availability fetches and the form post happen outside it.
type PageController struct {
	mu      sync.Mutex
	page    *models.Page
	cookies []*http.Cookie
	deps    PageDeps
}

// NewPageController wires a page to its collaborators.
func NewPageController(page *models.Page, cookies []*http.Cookie, deps PageDeps) *PageController {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Presenter == nil {
		deps.Presenter = NewSlotPresenter()
	}
	if deps.Notifier == nil {
		deps.Notifier = NewPageNotifier(0, deps.Clock)
	}
	return &PageController{page: page, cookies: cookies, deps: deps}
}

// ID returns the page id.
func (c *PageController) ID() string {
	return c.page.ID
}

// View renders the current page state.
func (c *PageController) View() dto.PageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// Touch records activity on the page.
func (c *PageController) Touch(now time.Time) {
	c.mu.Lock()
	c.page.LastSeen = now
	c.mu.Unlock()
}

// LastSeen returns the time of the last event.
func (c *PageController) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.LastSeen
}

// Focus marks the control's wrapper as focused.
func (c *PageController) Focus(name string) (dto.PageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.field(name)
	if err != nil {
		return dto.PageView{}, err
	}
	if f.Enhanced {
		c.page.SetWrapperClass(f, models.ClassFocused, true)
	}
	return c.view(), nil
}

// Blur clears the focus state and validates the control.
func (c *PageController) Blur(name string) (dto.PageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.field(name)
	if err != nil {
		return dto.PageView{}, err
	}
	if f.Enhanced {
		c.page.SetWrapperClass(f, models.ClassFocused, false)
		c.deps.Gatekeeper.ValidateField(c.page, f, c.deps.Clock.Now())
	}
	return c.view(), nil
}

// Input writes a new value and validates the control.
func (c *PageController) Input(name, value string) (dto.PageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.field(name)
	if err != nil {
		return dto.PageView{}, err
	}
	c.input(f, value)
	return c.view(), nil
}

// Change handles the change event: the value is written and validated as on input, then a
// date change runs the lead-time check and requests availability, and a time change runs the
// lead-time check.
func (c *PageController) Change(name, value string) (dto.PageView, error) {
	c.mu.Lock()

	f, err := c.field(name)
	if err != nil {
		c.mu.Unlock()
		return dto.PageView{}, err
	}
	c.input(f, value)

	var pending *FetchRequest
	switch f.Kind {
	case models.FieldKindDate:
		c.checkDateTime()
		pending = c.nextFetch(f.Value)
	case models.FieldKindTime:
		c.checkDateTime()
	}
	view := c.view()
	c.mu.Unlock()

	if pending != nil {
		c.dispatch(*pending)
	}
	return view, nil
}

// SelectSlot handles a click on a preset slot button. Taken slots ignore the click.
func (c *PageController) SelectSlot(slot string) (bool, dto.PageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.page.Slot(slot)
	if !ok {
		return false, dto.PageView{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown slot %q", slot))
	}
	timeField, ok := c.page.FieldOfKind(models.FieldKindTime)
	if !ok || b.Disabled() {
		return false, c.view(), nil
	}
	c.input(timeField, b.Slot)
	c.checkDateTime()
	return timeField.Value == b.Slot, c.view(), nil
}

// Submit re-validates the form. An invalid form is not sent; a valid one is posted to the
// backend and its answer is relayed.
func (c *PageController) Submit(ctx context.Context) (*dto.SubmitResponse, error) {
	c.mu.Lock()
	invalid := c.deps.Gatekeeper.Check(c.page, c.deps.Clock.Now())
	if len(invalid) > 0 {
		view := c.view()
		c.mu.Unlock()
		c.deps.Metrics.RecordSubmission(submitPrevented)
		return &dto.SubmitResponse{Prevented: true, InvalidFields: invalid, Page: view}, nil
	}
	values := c.page.Values()
	cookies := c.cookies
	c.mu.Unlock()

	if c.deps.Submitter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "form submission is not configured")
	}
	outcome, err := c.deps.Submitter.Submit(ctx, values, cookies)
	if err != nil {
		c.deps.Metrics.RecordSubmission(submitFailed)
		c.deps.Logger.Warn("form submission failed", zap.String("page_id", c.page.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, appErrors.ErrBadGateway.Message)
	}
	c.deps.Metrics.RecordSubmission(submitForwarded)

	return &dto.SubmitResponse{
		Submitted: true,
		Status:    outcome.StatusCode,
		Location:  outcome.Location,
		Page:      c.View(),
	}, nil
}

// ApplyAvailability renders a fetch result if it answers the newest request for the date
// still selected; anything older is discarded. It reports whether the result was applied.
func (c *PageController) ApplyAvailability(req FetchRequest, result models.AvailabilityResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	dateField, ok := c.page.FieldOfKind(models.FieldKindDate)
	if !ok || req.Seq != c.page.AvailabilitySeq || strings.TrimSpace(dateField.Value) != req.Date {
		c.deps.Metrics.RecordStaleResponse()
		c.deps.Logger.Debug("stale availability discarded",
			zap.String("page_id", c.page.ID),
			zap.String("date", req.Date),
			zap.Uint64("seq", req.Seq),
			zap.Uint64("current_seq", c.page.AvailabilitySeq))
		return false
	}
	c.deps.Presenter.Apply(c.page, result)
	return true
}

func (c *PageController) field(name string) (*models.Field, error) {
	f, ok := c.page.Field(name)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownField, fmt.Sprintf("unknown field %q", name))
	}
	return f, nil
}

func (c *PageController) input(f *models.Field, value string) {
	c.page.SetValue(f, value)
	if f.Kind == models.FieldKindTextarea {
		count := utf8.RuneCountInString(f.Value)
		c.page.SetCounter(count, count*10 > c.page.Counter.Max*9)
	}
	if f.Enhanced {
		c.deps.Gatekeeper.ValidateField(c.page, f, c.deps.Clock.Now())
	}
}

func (c *PageController) checkDateTime() {
	dateField, hasDate := c.page.FieldOfKind(models.FieldKindDate)
	timeField, hasTime := c.page.FieldOfKind(models.FieldKindTime)
	if !hasDate || !hasTime {
		return
	}
	res := c.deps.Gatekeeper.Validator().ValidateDateTime(dateField.Value, timeField.Value, c.deps.Clock.Now())
	if res.Valid {
		return
	}
	c.deps.Notifier.Notify(c.page, res.Message, models.NotificationError)
	c.page.SetValue(timeField, "")
}

func (c *PageController) nextFetch(date string) *FetchRequest {
	c.page.AvailabilitySeq++
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	return &FetchRequest{PageID: c.page.ID, Date: date, Seq: c.page.AvailabilitySeq, Cookies: c.cookies}
}

func (c *PageController) dispatch(req FetchRequest) {
	if c.deps.Fetcher == nil {
		return
	}
	done := func(r FetchRequest, result models.AvailabilityResult) {
		c.ApplyAvailability(r, result)
	}
	if err := c.deps.Fetcher.Dispatch(req, done); err != nil {
		c.deps.Logger.Warn("availability dispatch failed", zap.String("page_id", req.PageID), zap.String("date", req.Date), zap.Error(err))
	}
}

func (c *PageController) view() dto.PageView {
	now := c.deps.Clock.Now()
	p := c.page

	v := dto.PageView{
		ID:         p.ID,
		Fields:     make([]dto.FieldView, 0, len(p.FieldOrder)),
		Slots:      make([]dto.SlotView, 0, len(p.Slots)),
		TakenBadge: p.Badge,
		MinDate:    p.MinDate,
		CharCounter: dto.CharCounterView{
			Text:    fmt.Sprintf("%d/%d", p.Counter.Count, p.Counter.Max),
			Count:   p.Counter.Count,
			Max:     p.Counter.Max,
			Warning: p.Counter.Warning,
		},
		Notifications: make([]dto.NotificationView, 0),
		Mutations:     p.Mutations,
	}
	for _, name := range p.FieldOrder {
		f := p.Fields[name]
		fv := dto.FieldView{
			Name:         f.Name,
			Label:        f.Label,
			Kind:         string(f.Kind),
			Value:        f.Value,
			Required:     f.Required,
			Enhanced:     f.Enhanced,
			Options:      append([]string(nil), f.Options...),
			WrapperClass: append([]string{}, f.Wrapper...),
			ErrorVisible: f.ErrorVisible,
		}
		if f.ErrorVisible {
			fv.ErrorMessage = f.ErrorMessage
		}
		if f.Kind == models.FieldKindDate {
			fv.Min = p.MinDate
		}
		v.Fields = append(v.Fields, fv)
	}
	for _, b := range p.Slots {
		v.Slots = append(v.Slots, dto.SlotView{
			Slot:         b.Slot,
			Label:        b.Label,
			Class:        append([]string{}, b.Classes...),
			Disabled:     b.Disabled(),
			AriaDisabled: b.AriaDisabled,
		})
	}
	for _, n := range p.Notifications {
		if n.Active(now) {
			v.Notifications = append(v.Notifications, dto.NotificationView{Message: n.Message, Type: string(n.Type), ExpiresAt: n.ExpiresAt})
		}
	}
	return v
}
