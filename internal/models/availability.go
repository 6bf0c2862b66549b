package models

import "time"

// AvailabilityResult lists the slots already reserved on a date, in backend order.
type AvailabilityResult struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// Contains reports whether slot is taken.
func (r AvailabilityResult) Contains(slot string) bool {
	for _, t := range r.Times {
		if t == slot {
			return true
		}
	}
	return false
}

// NotificationType selects the styling of a transient notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// Notification is a transient toast shown on the page.
type Notification struct {
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Active reports whether the notification is still on screen at now.
func (n Notification) Active(now time.Time) bool {
	return now.Before(n.ExpiresAt)
}

// SubmissionOutcome is what the backend answered to a forwarded form post.
type SubmissionOutcome struct {
	StatusCode int    `json:"status_code"`
	Location   string `json:"location,omitempty"`
}

// PageHostMetrics is a lightweight snapshot of the page host counters.
type PageHostMetrics struct {
	ActivePages            int64     `json:"active_pages"`
	RequestsTotal          uint64    `json:"requests_total"`
	AvailabilityFetches    uint64    `json:"availability_fetches"`
	AvailabilityFailures   uint64    `json:"availability_failures"`
	StaleResponses         uint64    `json:"stale_responses"`
	SubmissionsPrevented   uint64    `json:"submissions_prevented"`
	SubmissionsForwarded   uint64    `json:"submissions_forwarded"`
	AverageFetchDurationMs float64   `json:"average_fetch_duration_ms"`
	Goroutines             int       `json:"goroutines"`
	GeneratedAt            time.Time `json:"generated_at"`
}
