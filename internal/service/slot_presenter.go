package service

import (
	"strings"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/validation"
)

const takenIndicator = "✕"

// SlotPresenter renders an availability result onto a page.
type SlotPresenter struct{}

// NewSlotPresenter constructs a presenter.
func NewSlotPresenter() *SlotPresenter {
	return &SlotPresenter{}
}

// TakenLabel is the label of a taken slot button.
func TakenLabel(slot string) string {
	return takenIndicator + " " + slot
}

// Apply marks taken preset buttons, frees the others, refreshes the badge and clears the
// selected time if it was taken. It reports whether the selection was cleared.
// Reapplying the same result changes nothing.
func (p *SlotPresenter) Apply(page *models.Page, result models.AvailabilityResult) bool {
	for _, b := range page.Slots {
		if result.Contains(b.Slot) {
			page.SetSlotTaken(b, true, TakenLabel(b.Slot))
		} else {
			page.SetSlotTaken(b, false, b.Slot)
		}
	}

	page.SetBadge(strings.Join(result.Times, ", "))

	timeField, ok := page.FieldOfKind(models.FieldKindTime)
	if !ok || timeField.Value == "" || !slotTaken(result, timeField.Value) {
		return false
	}
	return page.SetValue(timeField, "")
}

// slotTaken matches by hour and minute so "10:00:00" counts as the taken "10:00".
func slotTaken(result models.AvailabilityResult, value string) bool {
	if result.Contains(value) {
		return true
	}
	hour, minute, err := validation.ParseTime(value)
	if err != nil {
		return false
	}
	for _, t := range result.Times {
		if h, m, err := validation.ParseTime(t); err == nil && h == hour && m == minute {
			return true
		}
	}
	return false
}
