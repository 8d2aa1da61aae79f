package tools

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone reduces a phone number to the digits-only international
// form the WhatsApp Cloud API uses (no '+', no separators).
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone")
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := strings.TrimLeft(b.String(), "0")

	// Light validation only: country code + number.
	if len(phone) < 8 {
		return "", fmt.Errorf("invalid phone length: %d", len(phone))
	}
	return phone, nil
}
