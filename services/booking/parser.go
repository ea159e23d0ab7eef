package booking

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const unknownAnswer = "UNKNOWN"

var (
	ordinalRe    = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)
	relativeRe   = regexp.MustCompile(`^in\s+(\d+|a|an|one|two|three|four|five|six|seven)\s+(day|days|week|weeks)$`)
	weekdayRe    = regexp.MustCompile(`^(?:(?:next|this|on|coming)\s+)?([a-z]+)$`)
	isoAnswerRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	time12Re     = regexp.MustCompile(`^(\d{1,2})(?:[:.]?(\d{2}))?\s*(am|pm)$`)
	time24Re     = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
	time24Answer = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
}

// Numeric layouts in priority order; day-first wins when both apply.
var numericDateLayouts = []string{
	isoDateLayout,
	"2/1/2006",
	"1/2/2006",
	"2-1-2006",
	"2.1.2006",
}

var namedDateLayouts = []string{
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006",
	"2 January 2006", "2 January, 2006", "2 Jan 2006",
}

var yearlessDateLayouts = []string{"January 2", "Jan 2", "2 January", "2 Jan"}

// Parser turns loose date and time phrasing into canonical values. Literals
// are resolved locally; anything else is delegated to the generator, whose
// answer is accepted only if it matches the expected format exactly.
type Parser struct {
	generator TextGenerator
	logger    *zap.Logger
}

// NewParser returns a Parser. A nil generator disables the delegated tier.
func NewParser(generator TextGenerator, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{generator: generator, logger: logger}
}

// ParseDate resolves raw into YYYY-MM-DD relative to reference. Past dates are
// rejected whichever tier produced them.
func (p *Parser) ParseDate(ctx context.Context, raw string, reference time.Time) (string, error) {
	input := normalizeInput(raw)
	if input == "" {
		return "", NewValidationError("date", "Please tell me which date you'd like.")
	}
	if d, ok := parseDateLiteral(input, reference); ok {
		return ValidateDate(d.Format(isoDateLayout), reference)
	}
	if p.generator == nil {
		return "", NewParseAmbiguityError("date", raw, "I couldn't understand that date. Try '2024-12-25', 'tomorrow' or 'next Monday'.")
	}

	answer, err := p.generator.Complete(ctx, datePrompt(raw, reference))
	if err != nil {
		p.logger.Warn("parser: delegated date parse failed", zap.Error(err))
		return "", NewCollaboratorError("parse date", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == unknownAnswer || !isoAnswerRe.MatchString(answer) {
		p.logger.Debug("parser: rejected delegated date", zap.String("input", raw), zap.String("answer", answer))
		return "", NewParseAmbiguityError("date", raw, "I couldn't understand that date. Try '2024-12-25', 'tomorrow' or 'next Monday'.")
	}
	if _, err := time.Parse(isoDateLayout, answer); err != nil {
		return "", NewParseAmbiguityError("date", raw, "I couldn't understand that date. Try '2024-12-25', 'tomorrow' or 'next Monday'.")
	}
	return ValidateDate(answer, reference)
}

// ParseTime resolves raw into the canonical H:MM AM/PM form.
func (p *Parser) ParseTime(ctx context.Context, raw string) (string, error) {
	input := normalizeInput(raw)
	if input == "" {
		return "", NewValidationError("time", "Please tell me what time you'd prefer.")
	}
	if t, ok := parseTimeLiteral(input); ok {
		return t, nil
	}
	if p.generator == nil {
		return "", NewParseAmbiguityError("time", raw, "I couldn't understand that time. Try '10:30', '2:00 PM' or '14:00'.")
	}

	answer, err := p.generator.Complete(ctx, timePrompt(raw))
	if err != nil {
		p.logger.Warn("parser: delegated time parse failed", zap.Error(err))
		return "", NewCollaboratorError("parse time", err)
	}
	answer = strings.TrimSpace(answer)
	m := time24Answer.FindStringSubmatch(answer)
	if m == nil {
		p.logger.Debug("parser: rejected delegated time", zap.String("input", raw), zap.String("answer", answer))
		return "", NewParseAmbiguityError("time", raw, "I couldn't understand that time. Try '10:30', '2:00 PM' or '14:00'.")
	}
	h, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return formatClock(h, minute), nil
}

func normalizeInput(raw string) string {
	s := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	return strings.TrimRight(s, ".!?")
}

func parseDateLiteral(input string, reference time.Time) (time.Time, bool) {
	today := startOfDay(reference)
	switch input {
	case "today", "now", "tonight":
		return today, true
	case "tomorrow", "tmrw", "tmr":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "day after tomorrow", "the day after tomorrow":
		return today.AddDate(0, 0, 2), true
	case "next week":
		return today.AddDate(0, 0, 7), true
	}

	if m := relativeRe.FindStringSubmatch(input); m != nil {
		n, ok := smallNumbers[m[1]]
		if !ok {
			n, _ = strconv.Atoi(m[1])
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return today.AddDate(0, 0, n), true
	}

	if m := weekdayRe.FindStringSubmatch(input); m != nil {
		if wd, ok := weekdays[m[1]]; ok {
			return nextWeekday(today, wd), true
		}
	}

	for _, layout := range numericDateLayouts {
		if d, err := time.ParseInLocation(layout, input, reference.Location()); err == nil {
			return d, true
		}
	}

	named := ordinalRe.ReplaceAllString(input, "$1")
	for _, layout := range namedDateLayouts {
		if d, err := time.ParseInLocation(layout, named, reference.Location()); err == nil {
			return d, true
		}
	}
	for _, layout := range yearlessDateLayouts {
		if d, err := time.Parse(layout, named); err == nil {
			candidate := time.Date(today.Year(), d.Month(), d.Day(), 0, 0, 0, 0, reference.Location())
			if candidate.Before(today) {
				candidate = candidate.AddDate(1, 0, 0)
			}
			return candidate, true
		}
	}
	return time.Time{}, false
}

// nextWeekday returns the next occurrence of target strictly after today.
func nextWeekday(today time.Time, target time.Weekday) time.Time {
	offset := (int(target) - int(today.Weekday())) % 7
	if offset <= 0 {
		offset += 7
	}
	return today.AddDate(0, 0, offset)
}

func parseTimeLiteral(input string) (string, bool) {
	input = strings.NewReplacer("a.m", "am", "p.m", "pm", "o'clock", "", "oclock", "").Replace(input)
	input = strings.TrimSpace(input)
	switch input {
	case "noon", "midday", "12 noon":
		return formatClock(12, 0), true
	case "midnight":
		return formatClock(0, 0), true
	}

	if m := time12Re.FindStringSubmatch(input); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || minute > 59 {
			return "", false
		}
		if m[3] == "am" && h == 12 {
			h = 0
		} else if m[3] == "pm" && h != 12 {
			h += 12
		}
		return formatClock(h, minute), true
	}

	if m := time24Re.FindStringSubmatch(input); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h > 23 || minute > 59 {
			return "", false
		}
		return formatClock(h, minute), true
	}
	return "", false
}

func formatClock(hour, minute int) string {
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format(canonicalTime)
}

func datePrompt(raw string, reference time.Time) string {
	return fmt.Sprintf(`Today is %s, %s.
Convert the following expression into a single calendar date.

Expression: %q

Rules:
- Respond with ONLY the date in YYYY-MM-DD format, nothing else.
- Resolve relative expressions against today's date.
- If the expression does not describe exactly one date, respond with %s.`,
		reference.Weekday(), reference.Format(isoDateLayout), raw, unknownAnswer)
}

func timePrompt(raw string) string {
	return fmt.Sprintf(`Convert the following expression into a time of day.

Expression: %q

Rules:
- Respond with ONLY the time in 24-hour HH:MM format, nothing else.
- If the expression does not describe exactly one time of day, respond with %s.`,
		raw, unknownAnswer)
}
