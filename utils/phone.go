package utils

import "strings"

// NormalizePhone strips everything but digits from a caller number, so that
// "+1 (415) 555-0134" and "14155550134" key the same booking session.
func NormalizePhone(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
