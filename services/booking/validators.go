package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	isoDateLayout   = "2006-01-02"
	canonicalTime   = "3:04 PM"
	minNameLength   = 2
	maxNameLength   = 100
	minPurposeChars = 5
	maxPurposeChars = 500
)

var emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)

// ValidateName accepts letters, spaces, hyphens and apostrophes and title-cases the result.
func ValidateName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(name) < minNameLength {
		return "", NewValidationError("name", "Name must be at least 2 characters long.")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", NewValidationError("name", "Name is too long (max 100 characters).")
	}
	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '-' || r == '\'' || r == '’':
		default:
			return "", NewValidationError("name", "Name can only contain letters, spaces, hyphens and apostrophes.")
		}
	}
	if letters == 0 {
		return "", NewValidationError("name", "Name must contain letters.")
	}
	return titleCase(name), nil
}

// titleCase upper-cases the first letter of each space or hyphen separated part.
// A single letter before an apostrophe is treated as a prefix (O'Brien); longer
// runs are contractions (What's).
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upperNext := true
	run := 0
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			upperNext, run = true, 0
			b.WriteRune(r)
		case r == '\'' || r == '’':
			upperNext = run == 1
			b.WriteRune(r)
		default:
			if upperNext {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			upperNext = false
			run++
		}
	}
	return b.String()
}

// ValidatePhone accepts 10 digits, or 11 with a leading 1, and formats them as (XXX) XXX-XXXX.
func ValidatePhone(raw string) (string, error) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", NewValidationError("phone",
			fmt.Sprintf("Phone number must have 10 digits (or 11 starting with 1), got %d.", len(digits)))
	}
	d := string(digits)
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), nil
}

// ValidateEmail checks a local@domain.tld shape and lower-cases the address.
func ValidateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(email) || strings.Contains(email, "..") {
		return "", NewValidationError("email", "Please enter a valid email address (e.g., name@example.com).")
	}
	return email, nil
}

// ValidatePurpose requires at least 5 characters of trimmed text.
func ValidatePurpose(raw string) (string, error) {
	purpose := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(purpose)
	if n < minPurposeChars {
		return "", NewValidationError("purpose", "Please describe the purpose in at least 5 characters.")
	}
	if n > maxPurposeChars {
		return "", NewValidationError("purpose", "Purpose is too long (max 500 characters).")
	}
	return purpose, nil
}

// ValidateDate checks an ISO date and rejects anything before the reference day.
func ValidateDate(iso string, reference time.Time) (string, error) {
	d, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(iso), reference.Location())
	if err != nil {
		return "", NewValidationError("date", "Please use the YYYY-MM-DD format.")
	}
	if d.Before(startOfDay(reference)) {
		return "", NewValidationError("date", ReasonPastDate)
	}
	return d.Format(isoDateLayout), nil
}

// ValidateTime checks the canonical H:MM AM/PM form.
func ValidateTime(canonical string) (string, error) {
	t, err := time.Parse(canonicalTime, strings.TrimSpace(canonical))
	if err != nil || t.Format(canonicalTime) != strings.TrimSpace(canonical) {
		return "", NewValidationError("time", "Please use a time like 2:30 PM.")
	}
	return t.Format(canonicalTime), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
