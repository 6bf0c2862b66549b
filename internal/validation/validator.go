package validation

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/booking-page/internal/models"
)

const (
	tagEmail    = "booking_email"
	tagNotBlank = "notblank"
)

// Result is the validation state of one field.
type Result struct {
	Valid   bool
	Message string
}

// Input is what the field validator needs to know about a control.
type Input struct {
	Kind     models.FieldKind
	Required bool
	Value    string
}

// Validator applies the booking rules to single fields.
type Validator struct {
	rules    Rules
	validate *validator.Validate
}

// New registers the booking tags on validate (a fresh instance when nil).
func New(rules Rules, validate *validator.Validate) (*Validator, error) {
	if validate == nil {
		validate = validator.New()
	}
	if err := RegisterTags(validate); err != nil {
		return nil, err
	}
	return &Validator{rules: rules, validate: validate}, nil
}

// RegisterTags adds booking_email and notblank so DTOs can use the same rules.
func RegisterTags(validate *validator.Validate) error {
	if err := validate.RegisterValidation(tagEmail, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	}); err != nil {
		return err
	}
	return validate.RegisterValidation(tagNotBlank, func(fl validator.FieldLevel) bool {
		return IsPresent(fl.Field().String())
	})
}

// Rules exposes the configured rules.
func (v *Validator) Rules() Rules {
	return v.rules
}

// ValidateField runs the rules in order: email, required, date, time. A later failure
// overwrites the message of an earlier one, so the last failing rule is reported.
func (v *Validator) ValidateField(in Input, now time.Time) Result {
	res := Result{Valid: true}
	fail := func(message string) {
		res.Valid = false
		res.Message = message
	}

	if in.Kind == models.FieldKindEmail && v.validate.Var(in.Value, tagEmail) != nil {
		fail(v.rules.emailMessage())
	}
	if in.Required && v.validate.Var(in.Value, tagNotBlank) != nil {
		fail(v.rules.requiredMessage())
	}
	if in.Kind == models.FieldKindDate && IsPresent(in.Value) && !v.rules.DateAllowed(in.Value, now) {
		fail(v.rules.dateMessage())
	}
	if in.Kind == models.FieldKindTime && IsPresent(in.Value) && !v.rules.TimeAllowed(in.Value) {
		fail(v.rules.timeMessage())
	}

	return res
}

// ValidateDateTime runs the cross-field lead-time rule.
func (v *Validator) ValidateDateTime(date, clock string, now time.Time) Result {
	if v.rules.DateTimeAllowed(date, clock, now) {
		return Result{Valid: true}
	}
	return Result{Valid: false, Message: v.rules.LeadTimeMessage()}
}
