package models

import (
	"time"
)

// FieldKind mirrors the input type of a booking form control.
type FieldKind string

const (
	FieldKindEmail    FieldKind = "email"
	FieldKindDate     FieldKind = "date"
	FieldKindTime     FieldKind = "time"
	FieldKindText     FieldKind = "text"
	FieldKindSelect   FieldKind = "select"
	FieldKindTextarea FieldKind = "textarea"
)

// Names of the controls on the booking form.
const (
	FieldEmail    = "email"
	FieldDate     = "appointment_date"
	FieldTime     = "appointment_time"
	FieldPlatform = "platform"
	FieldPurpose  = "purpose"
)

// Presentation classes toggled on wrappers and slot buttons.
const (
	ClassError    = "error"
	ClassFocused  = "focused"
	ClassDisabled = "disabled"
)

// ClassList is an ordered set of presentation classes.
type ClassList []string

// Has reports whether the class is present.
func (c ClassList) Has(name string) bool {
	for _, existing := range c {
		if existing == name {
			return true
		}
	}
	return false
}

// Add inserts the class and reports whether the list changed.
func (c *ClassList) Add(name string) bool {
	if c.Has(name) {
		return false
	}
	*c = append(*c, name)
	return true
}

// Remove deletes the class and reports whether the list changed.
func (c *ClassList) Remove(name string) bool {
	for i, existing := range *c {
		if existing == name {
			*c = append((*c)[:i], (*c)[i+1:]...)
			return true
		}
	}
	return false
}

// Field is one form control together with its wrapper and error message element.
type Field struct {
	Name         string
	Label        string
	Kind         FieldKind
	Value        string
	Required     bool
	Enhanced     bool
	Options      []string
	Wrapper      ClassList
	ErrorMessage string
	ErrorVisible bool
}

// SlotButton is a preset time-slot control.
type SlotButton struct {
	Slot         string
	Label        string
	Classes      ClassList
	AriaDisabled bool
	Taken        bool
}

// Disabled reports whether the button is rendered as unavailable.
func (b *SlotButton) Disabled() bool {
	return b.Classes.Has(ClassDisabled)
}

// CharCounter tracks the length of the purpose textarea.
type CharCounter struct {
	Count   int
	Max     int
	Warning bool
}

// Page is the state of one rendered booking page. It dies with the page.
// All mutations go through the Set* methods so that Mutations only grows on real changes.
type Page struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	Fields     map[string]*Field
	FieldOrder []string
	Slots      []*SlotButton
	Badge      string
	MinDate    string
	Counter    CharCounter

	Notifications []Notification

	// AvailabilitySeq increases with every date change; only the newest fetch may render.
	AvailabilitySeq uint64
	Mutations       int
}

// NewPage returns an empty page.
func NewPage(id string, now time.Time) *Page {
	return &Page{
		ID:        id,
		CreatedAt: now,
		LastSeen:  now,
		Fields:    make(map[string]*Field),
	}
}

// AddField appends a control to the page in render order.
func (p *Page) AddField(f *Field) {
	if _, exists := p.Fields[f.Name]; !exists {
		p.FieldOrder = append(p.FieldOrder, f.Name)
	}
	p.Fields[f.Name] = f
}

// Field returns the named control.
func (p *Page) Field(name string) (*Field, bool) {
	f, ok := p.Fields[name]
	return f, ok
}

// FieldOfKind returns the first control of the given kind.
func (p *Page) FieldOfKind(kind FieldKind) (*Field, bool) {
	for _, name := range p.FieldOrder {
		if f := p.Fields[name]; f.Kind == kind {
			return f, true
		}
	}
	return nil, false
}

// Slot returns the preset button for slot.
func (p *Page) Slot(slot string) (*SlotButton, bool) {
	for _, b := range p.Slots {
		if b.Slot == slot {
			return b, true
		}
	}
	return nil, false
}

// Values returns every control value keyed by name.
func (p *Page) Values() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for name, f := range p.Fields {
		out[name] = f.Value
	}
	return out
}

func (p *Page) touch(changed bool) bool {
	if changed {
		p.Mutations++
	}
	return changed
}

// SetValue writes a control value.
func (p *Page) SetValue(f *Field, value string) bool {
	if f.Value == value {
		return false
	}
	f.Value = value
	return p.touch(true)
}

// SetWrapperClass toggles a class on the control's wrapper.
func (p *Page) SetWrapperClass(f *Field, class string, on bool) bool {
	if on {
		return p.touch(f.Wrapper.Add(class))
	}
	return p.touch(f.Wrapper.Remove(class))
}

// SetError shows or hides the control's error message element.
func (p *Page) SetError(f *Field, message string, visible bool) bool {
	changed := false
	if visible && f.ErrorMessage != message {
		f.ErrorMessage = message
		changed = true
	}
	if f.ErrorVisible != visible {
		f.ErrorVisible = visible
		changed = true
	}
	return p.touch(changed)
}

// SetSlotTaken renders a slot button as taken or free.
func (p *Page) SetSlotTaken(b *SlotButton, taken bool, label string) bool {
	changed := false
	if taken {
		changed = b.Classes.Add(ClassDisabled) || changed
	} else {
		changed = b.Classes.Remove(ClassDisabled) || changed
	}
	if b.AriaDisabled != taken {
		b.AriaDisabled = taken
		changed = true
	}
	if b.Taken != taken {
		b.Taken = taken
		changed = true
	}
	if b.Label != label {
		b.Label = label
		changed = true
	}
	return p.touch(changed)
}

// SetBadge replaces the taken-slots summary text.
func (p *Page) SetBadge(text string) bool {
	if p.Badge == text {
		return false
	}
	p.Badge = text
	return p.touch(true)
}

// SetCounter updates the character counter.
func (p *Page) SetCounter(count int, warning bool) bool {
	if p.Counter.Count == count && p.Counter.Warning == warning {
		return false
	}
	p.Counter.Count = count
	p.Counter.Warning = warning
	return p.touch(true)
}
