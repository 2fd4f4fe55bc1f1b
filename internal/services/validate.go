package services

import "strings"

// Listing bounds carried over from the platform rules: short titles, a real
// description, and an hourly cost between 1 and 10 credits.
const (
	titleMinLen       = 3
	titleMaxLen       = 100
	descriptionMinLen = 10
	descriptionMaxLen = 600
	creditsMin        = 1
	creditsMax        = 10
)

// validText trims value and reports whether its length falls inside
// [minLen, maxLen]. The trimmed value is returned so callers persist exactly
// what was validated.
func validText(value string, minLen, maxLen int) (string, bool) {
	value = strings.TrimSpace(value)
	n := len([]rune(value))
	if n < minLen || n > maxLen {
		return "", false
	}
	return value, true
}

// validCredits reports whether an hourly credit cost is inside the allowed
// band.
func validCredits(n int64) bool {
	return n >= creditsMin && n <= creditsMax
}
