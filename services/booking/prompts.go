package booking

import (
	"fmt"
	"time"

	"ragdesk/models"
)

const (
	cancelMessage        = "❌ Booking cancelled. How else can I help you?"
	cancelHint           = "_Type 'cancel' at any time to stop._"
	collaboratorRetryMsg = "⚠️ I couldn't process that just now. Please try again."
	expiredNotice        = "⌛ Your previous booking timed out and was discarded."
)

var fieldPrompts = map[string]string{
	models.FieldName:    "👤 **What's your full name?**",
	models.FieldPhone:   "📱 **What's your phone number?**",
	models.FieldEmail:   "📧 **What's your email address?**",
	models.FieldDate:    "📅 **When would you like the appointment?** (e.g., '2024-12-25', 'tomorrow', 'next Monday')",
	models.FieldTime:    "🕐 **What time would you prefer?** (e.g., '10:30', '2:00 PM', '14:00')",
	models.FieldPurpose: "📝 **What's the purpose of your appointment?**",
}

func fieldPrompt(field string) string {
	return fieldPrompts[field]
}

func startPrompt(kind models.BookingKind) string {
	intro := "Let's book your appointment! 📅"
	if kind == models.BookingCallback {
		intro = "I'll arrange a callback for you! 📞"
	}
	first := kind.RequiredFields()[0]
	return fmt.Sprintf("%s\n\n%s\n\n%s", intro, fieldPrompt(first), cancelHint)
}

func repromptWithReason(reason, field string) string {
	return fmt.Sprintf("❌ %s\n\n%s", reason, fieldPrompt(field))
}

// acknowledge confirms an accepted value and asks for the next field.
func acknowledge(field, value, next string) string {
	var ack string
	switch field {
	case models.FieldName:
		ack = fmt.Sprintf("Thanks %s!", value)
	case models.FieldPhone:
		ack = "Great!"
	case models.FieldEmail:
		ack = "Perfect!"
	case models.FieldDate:
		ack = fmt.Sprintf("Date set for %s!", displayDate(value))
	case models.FieldTime:
		ack = fmt.Sprintf("Time set for %s!", value)
	default:
		ack = "Got it!"
	}
	return ack + " " + fieldPrompt(next)
}

func displayDate(iso string) string {
	d, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return iso
	}
	return d.Format("Monday, January 2, 2006")
}
