package booking

import (
	"strings"

	"fasobus/internal/domain"
)

// ValidateFullName requires at least two whitespace-separated tokens.
func ValidateFullName(name string) error {
	if len(strings.Fields(name)) < 2 {
		return domain.ValidationError{Field: "name", Msg: "full name must include first and last name"}
	}
	return nil
}

// NormalizePhone strips every non-digit and requires exactly 8 digits.
// An empty phone is accepted; the field is optional.
func NormalizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", domain.ValidationError{Field: "phone", Msg: "phone must contain exactly 8 digits"}
	}
	return digits, nil
}

func normalizeBookingFor(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "self" || v == "other" {
		return v
	}
	return ""
}
