package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/validation"
	"github.com/noah-isme/booking-page/pkg/config"
)

var platformOptions = []string{"meet", "zoom", "teams"}

// PageFactory lays out a fresh booking page.
type PageFactory struct {
	rules      validation.Rules
	slots      []string
	purposeMax int
}

// NewPageFactory precomputes the preset slot grid from the booking configuration.
func NewPageFactory(cfg config.BookingConfig, rules validation.Rules) (*PageFactory, error) {
	slots, err := PresetSlots(cfg.SlotStart, cfg.SlotEnd, cfg.SlotStep)
	if err != nil {
		return nil, err
	}
	purposeMax := cfg.PurposeMaxLength
	if purposeMax <= 0 {
		purposeMax = 1000
	}
	return &PageFactory{rules: rules, slots: slots, purposeMax: purposeMax}, nil
}

// Build returns a page with the booking form controls, the slot buttons and the date floor.
func (f *PageFactory) Build(id string, now time.Time, currentUserEmail string) *models.Page {
	page := models.NewPage(id, now)
	page.AddField(&models.Field{Name: models.FieldEmail, Label: "E-mail", Kind: models.FieldKindEmail, Required: true, Enhanced: true, Value: currentUserEmail})
	page.AddField(&models.Field{Name: models.FieldDate, Label: "Appointment date", Kind: models.FieldKindDate, Required: true, Enhanced: true})
	page.AddField(&models.Field{Name: models.FieldTime, Label: "Appointment time", Kind: models.FieldKindTime, Required: true, Enhanced: true})
	page.AddField(&models.Field{Name: models.FieldPlatform, Label: "Meeting platform", Kind: models.FieldKindSelect, Required: true, Options: platformOptions, Value: platformOptions[0]})
	page.AddField(&models.Field{Name: models.FieldPurpose, Label: "Purpose", Kind: models.FieldKindTextarea, Required: true, Enhanced: true})

	for _, slot := range f.slots {
		page.Slots = append(page.Slots, &models.SlotButton{Slot: slot, Label: slot})
	}
	page.MinDate = f.rules.MinDate(now).Format(validation.DateLayout)
	page.Counter = models.CharCounter{Max: f.purposeMax}
	return page
}

// PresetSlots lists HH:MM slots from start to end inclusive.
func PresetSlots(start, end string, step time.Duration) ([]string, error) {
	if step <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %s", step)
	}
	from, err := time.Parse(validation.TimeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("slot start %q: %w", start, err)
	}
	to, err := time.Parse(validation.TimeLayout, end)
	if err != nil {
		return nil, fmt.Errorf("slot end %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("slot end %s is before start %s", end, start)
	}
	var slots []string
	for t := from; !t.After(to); t = t.Add(step) {
		slots = append(slots, t.Format(validation.TimeLayout))
	}
	return slots, nil
}
