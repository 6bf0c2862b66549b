package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/validation"
)

// FormGatekeeper owns every validation pass over a page: per-field checks on input and
// blur, and the full pass that decides whether a submit may go out.
type FormGatekeeper struct {
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewFormGatekeeper constructs the gatekeeper.
func NewFormGatekeeper(v *validation.Validator, metrics *MetricsService, logger *zap.Logger) *FormGatekeeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormGatekeeper{validator: v, metrics: metrics, logger: logger}
}

// Validator exposes the underlying rule set.
func (g *FormGatekeeper) Validator() *validation.Validator {
	return g.validator
}

// ValidateField checks one control and renders the outcome on its wrapper and message element.
func (g *FormGatekeeper) ValidateField(page *models.Page, f *models.Field, now time.Time) validation.Result {
	res := g.validator.ValidateField(validation.Input{Kind: f.Kind, Required: f.Required, Value: f.Value}, now)
	render(page, f, res)
	if !res.Valid {
		g.metrics.RecordValidationFailure(f.Name)
	}
	return res
}

// Check validates every enhanced control, then the date and time together. It returns the
// names of the invalid controls; an empty slice means the form may be submitted.
func (g *FormGatekeeper) Check(page *models.Page, now time.Time) []string {
	invalid := make([]string, 0)
	for _, name := range page.FieldOrder {
		f := page.Fields[name]
		if !f.Enhanced {
			continue
		}
		if res := g.ValidateField(page, f, now); !res.Valid {
			invalid = append(invalid, name)
		}
	}

	dateField, hasDate := page.FieldOfKind(models.FieldKindDate)
	timeField, hasTime := page.FieldOfKind(models.FieldKindTime)
	if hasDate && hasTime && !contains(invalid, timeField.Name) && !contains(invalid, dateField.Name) {
		if res := g.validator.ValidateDateTime(dateField.Value, timeField.Value, now); !res.Valid {
			render(page, timeField, res)
			g.metrics.RecordValidationFailure(timeField.Name)
			invalid = append(invalid, timeField.Name)
		}
	}

	if len(invalid) > 0 {
		g.logger.Debug("form blocked", zap.String("page_id", page.ID), zap.Strings("invalid", invalid))
	}
	return invalid
}

func render(page *models.Page, f *models.Field, res validation.Result) {
	if res.Valid {
		page.SetWrapperClass(f, models.ClassError, false)
		page.SetError(f, "", false)
		return
	}
	page.SetWrapperClass(f, models.ClassError, true)
	page.SetError(f, res.Message, true)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
