// Package contact normalizes and validates customer phone numbers and emails.
package contact

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\+33|0)[1-9](\d{8})$`)
	separators   = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// NormalizePhone strips separators and rewrites a leading national 0 into
// countryCode. Numbers already in international form are left alone.
func NormalizePhone(raw, countryCode string) string {
	phone := separators.Replace(strings.TrimSpace(raw))
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "00") {
		return "+" + phone[2:]
	}
	if strings.HasPrefix(phone, "0") && countryCode != "" {
		return countryCode + phone[1:]
	}
	return phone
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidPhone checks French mobile and landline formats, national or +33.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(separators.Replace(strings.TrimSpace(phone)))
}

// NormalizeEmail lowercases and trims.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
