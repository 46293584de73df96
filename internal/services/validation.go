package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordChars = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare address only, no display name or angle brackets.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// ValidRiotID reports whether id has the gameName#tagLine form.
func ValidRiotID(id string) bool {
	gameName, tagLine, ok := strings.Cut(id, "#")
	if !ok || strings.Contains(tagLine, "#") {
		return false
	}
	return strings.TrimSpace(gameName) != "" && strings.TrimSpace(tagLine) != ""
}

func validatePassword(v *ValidationError, password string) {
	switch {
	case utf8.RuneCountInString(password) < minPasswordChars:
		v.add("password", "Password must be at least 8 characters long")
	case len(password) > maxPasswordBytes:
		v.add("password", "Password must be at most 72 bytes long")
	}
}
