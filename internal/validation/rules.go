// Package validation holds the booking form rules. Every rule is a pure function of its
// inputs and the current time; the per-field path and the submit path share them.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rules parameterises the lead-time rule and business hours.
type Rules struct {
	LeadDays  int
	OpenHour  int
	CloseHour int
	Location  *time.Location
}

// DefaultRules returns a two-day lead time and a 09..18 hour window in local time.
func DefaultRules() Rules {
	return Rules{LeadDays: 2, OpenHour: 9, CloseHour: 18, Location: time.Local}
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Messages shown under a failing field.
func (r Rules) emailMessage() string    { return "Please enter a valid e-mail address" }
func (r Rules) requiredMessage() string { return "This field is required" }
func (r Rules) dateMessage() string {
	return fmt.Sprintf("Appointments can be booked at least %d days in advance", r.LeadDays)
}
func (r Rules) timeMessage() string {
	return fmt.Sprintf("Meeting hours are between %02d:00 and %02d:00", r.OpenHour, r.CloseHour)
}

// LeadTimeMessage is the notification raised when a date and time together fall inside the lead window.
func (r Rules) LeadTimeMessage() string { return r.dateMessage() }

// IsEmail reports whether value looks like an address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPresent reports whether value has content after trimming whitespace.
func IsPresent(value string) bool {
	return strings.TrimSpace(value) != ""
}

// ParseDate parses a YYYY-MM-DD value as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// ParseTime parses HH:MM (seconds are tolerated) and returns hour and minute.
func ParseTime(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		var errSec error
		t, errSec = time.Parse("15:04:05", value)
		if errSec != nil {
			return 0, 0, err
		}
	}
	return t.Hour(), t.Minute(), nil
}

// MinDate is the first bookable day: today plus the lead days, at 00:00.
func (r Rules) MinDate(now time.Time) time.Time {
	local := now.In(r.location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.location())
	return today.AddDate(0, 0, r.LeadDays)
}

// DateAllowed reports whether the date is on or after MinDate.
func (r Rules) DateAllowed(value string, now time.Time) bool {
	d, err := ParseDate(value, r.location())
	if err != nil {
		return false
	}
	return !d.Before(r.MinDate(now))
}

// TimeAllowed reports whether the hour is inside [OpenHour, CloseHour].
func (r Rules) TimeAllowed(value string) bool {
	hour, _, err := ParseTime(value)
	if err != nil {
		return false
	}
	return hour >= r.OpenHour && hour <= r.CloseHour
}

// DateTimeAllowed is the cross-field rule: the combined moment must be strictly later
// than now plus the lead days. Missing or unreadable parts are left to the field rules.
func (r Rules) DateTimeAllowed(date, clock string, now time.Time) bool {
	if !IsPresent(date) || !IsPresent(clock) {
		return true
	}
	d, err := ParseDate(date, r.location())
	if err != nil {
		return true
	}
	hour, minute, err := ParseTime(clock)
	if err != nil {
		return true
	}
	moment := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, r.location())
	return moment.After(now.In(r.location()).AddDate(0, 0, r.LeadDays))
}
