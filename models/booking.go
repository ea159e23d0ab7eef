package models

import "time"

// BookingKind selects the required field sequence of a booking.
type BookingKind string

const (
	BookingCallback    BookingKind = "callback"
	BookingAppointment BookingKind = "appointment"
)

// Booking field names.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldDate    = "date"
	FieldTime    = "time"
	FieldPurpose = "purpose"
)

var requiredFields = map[BookingKind][]string{
	BookingCallback:    {FieldName, FieldPhone, FieldEmail},
	BookingAppointment: {FieldName, FieldPhone, FieldEmail, FieldDate, FieldTime, FieldPurpose},
}

// RequiredFields returns the ordered field sequence for the kind.
func (k BookingKind) RequiredFields() []string {
	return requiredFields[k]
}

// Valid reports whether k is a known kind.
func (k BookingKind) Valid() bool {
	_, ok := requiredFields[k]
	return ok
}

// ReferencePrefix is the receipt id prefix for the kind.
func (k BookingKind) ReferencePrefix() string {
	if k == BookingCallback {
		return "CB-"
	}
	return "APT-"
}

// Label is the display form of the kind.
func (k BookingKind) Label() string {
	if k == BookingCallback {
		return "Callback"
	}
	return "Appointment"
}

// FieldValue is one validated field, kept in collection order.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ActiveBooking is an in-progress booking dialogue.
type ActiveBooking struct {
	Kind            BookingKind  `json:"kind"`
	FieldIndex      int          `json:"fieldIndex"`
	CollectedFields []FieldValue `json:"collectedFields"`
	StartedAt       time.Time    `json:"startedAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// CurrentField is the name of the field awaiting input, or "" once all are collected.
func (b *ActiveBooking) CurrentField() string {
	fields := b.Kind.RequiredFields()
	if b.FieldIndex < 0 || b.FieldIndex >= len(fields) {
		return ""
	}
	return fields[b.FieldIndex]
}

// Field looks up a collected value.
func (b *ActiveBooking) Field(name string) (string, bool) {
	for _, f := range b.CollectedFields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Done reports whether every required field has been collected.
func (b *ActiveBooking) Done() bool {
	return b.FieldIndex >= len(b.Kind.RequiredFields())
}

// BookingReceipt is the result of finalizing a completed booking.
type BookingReceipt struct {
	ReferenceID string       `json:"referenceId"`
	Kind        BookingKind  `json:"kind"`
	Fields      []FieldValue `json:"fields"`
	Summary     string       `json:"summary"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Field looks up a receipt value.
func (r *BookingReceipt) Field(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// ConfirmationPayload is queued for the simulated confirmation side effects.
type ConfirmationPayload struct {
	ReferenceID string      `json:"referenceId"`
	Kind        BookingKind `json:"kind"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Date        string      `json:"date,omitempty"`
	Time        string      `json:"time,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
}

// ReminderPayload is queued to fire ahead of an appointment.
type ReminderPayload struct {
	ReferenceID string `json:"referenceId"`
	Email       string `json:"email"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	FireDate    string `json:"fireDate"`
}
