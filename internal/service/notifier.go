package service

import (
	"time"

	"github.com/noah-isme/booking-page/internal/models"
)

// Notifier shows a transient message on a page.
type Notifier interface {
	Notify(page *models.Page, message string, kind models.NotificationType)
}

// PageNotifier queues toasts on the page and drops the ones that have expired.
type PageNotifier struct {
	duration time.Duration
	clock    Clock
}

// NewPageNotifier builds a notifier; toasts stay visible for duration (3s when unset).
func NewPageNotifier(duration time.Duration, clock Clock) *PageNotifier {
	if duration <= 0 {
		duration = 3 * time.Second
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &PageNotifier{duration: duration, clock: clock}
}

func (n *PageNotifier) Notify(page *models.Page, message string, kind models.NotificationType) {
	now := n.clock.Now()
	page.Notifications = append(activeNotifications(page.Notifications, now), models.Notification{
		Message:   message,
		Type:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(n.duration),
	})
}

func activeNotifications(list []models.Notification, now time.Time) []models.Notification {
	out := list[:0]
	for _, n := range list {
		if n.Active(now) {
			out = append(out, n)
		}
	}
	return out
}
