package dto

import "time"

// OpenPageRequest opens a booking page.
type OpenPageRequest struct {
	CurrentUserEmail string `json:"currentUserEmail" validate:"omitempty,booking_email"`
}

// FieldEventRequest carries the control value of an input or change event.
type FieldEventRequest struct {
	Value string `json:"value"`
}

// FieldView is a rendered form control.
type FieldView struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	Kind         string   `json:"kind"`
	Value        string   `json:"value"`
	Required     bool     `json:"required"`
	Enhanced     bool     `json:"enhanced"`
	Options      []string `json:"options,omitempty"`
	Min          string   `json:"min,omitempty"`
	WrapperClass []string `json:"wrapperClass"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	ErrorVisible bool     `json:"errorVisible"`
}

// SlotView is a rendered preset slot button.
type SlotView struct {
	Slot         string   `json:"slot"`
	Label        string   `json:"label"`
	Class        []string `json:"class"`
	Disabled     bool     `json:"disabled"`
	AriaDisabled bool     `json:"ariaDisabled"`
}

// NotificationView is a visible toast.
type NotificationView struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CharCounterView renders the purpose counter.
type CharCounterView struct {
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Max     int    `json:"max"`
	Warning bool   `json:"warning"`
}

// PageView is the full rendered state of a booking page.
type PageView struct {
	ID            string             `json:"id"`
	Fields        []FieldView        `json:"fields"`
	Slots         []SlotView         `json:"slots"`
	TakenBadge    string             `json:"takenBadge"`
	MinDate       string             `json:"minDate"`
	CharCounter   CharCounterView    `json:"charCounter"`
	Notifications []NotificationView `json:"notifications"`
	Mutations     int                `json:"mutations"`
}

// SubmitResponse reports what happened to a submit event.
type SubmitResponse struct {
	Submitted     bool     `json:"submitted"`
	Prevented     bool     `json:"prevented"`
	InvalidFields []string `json:"invalidFields,omitempty"`
	Status        int      `json:"status,omitempty"`
	Location      string   `json:"location,omitempty"`
	Page          PageView `json:"page"`
}

// SlotSelectResponse reports whether a preset slot click took effect.
type SlotSelectResponse struct {
	Selected bool     `json:"selected"`
	Page     PageView `json:"page"`
}
