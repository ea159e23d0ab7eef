package booking

import (
	"strings"

	"ragdesk/models"
)

// KeywordTable is the phrase set used for booking intent detection.
type KeywordTable struct {
	Booking  []string `yaml:"booking"`
	Callback []string `yaml:"callback"`
}

// DefaultKeywords merges every phrase the assistant has historically reacted to.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		Booking: []string{
			"book", "schedule", "appointment", "appoint", "meeting",
			"callback", "call back", "call me", "arrange", "set up",
			"reserve", "contact me",
		},
		Callback: []string{"call me", "callback", "call back", "phone me"},
	}
}

// IntentClassifier is a coarse substring matcher. There is no stemming, so
// "facebook" contains "book"; such false positives are accepted.
type IntentClassifier struct {
	booking  []string
	callback []string
}

// NewIntentClassifier normalizes the table. Empty lists fall back to the defaults.
func NewIntentClassifier(table KeywordTable) *IntentClassifier {
	def := DefaultKeywords()
	if len(table.Booking) == 0 {
		table.Booking = def.Booking
	}
	if len(table.Callback) == 0 {
		table.Callback = def.Callback
	}
	return &IntentClassifier{
		booking:  normalizePhrases(table.Booking),
		callback: normalizePhrases(table.Callback),
	}
}

// Classify returns the booking kind requested by message, if any.
// Callback phrases count as booking intent on their own.
func (c *IntentClassifier) Classify(message string) (models.BookingKind, bool) {
	text := strings.ToLower(message)
	if containsAny(text, c.callback) {
		return models.BookingCallback, true
	}
	if containsAny(text, c.booking) {
		return models.BookingAppointment, true
	}
	return "", false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func normalizePhrases(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
