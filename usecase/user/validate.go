package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taskforge/backend/domain"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	passwordMinLen = 8
	// bcrypt hashes at most 72 bytes of input.
	passwordMaxBytes = 72

	passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validateRegistration(email, username, plaintext string) error {
	var fields []string

	if !emailPattern.MatchString(email) {
		fields = append(fields, "email: must be a valid address")
	}
	if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
		fields = append(fields, fmt.Sprintf("username: must be %d-%d characters", usernameMinLen, usernameMaxLen))
	} else if !usernamePattern.MatchString(username) {
		fields = append(fields, "username: only letters, digits, underscore and hyphen are allowed")
	}
	fields = append(fields, passwordPolicyViolations(plaintext)...)

	if len(fields) > 0 {
		return domain.NewValidationError("invalid registration data", fields...)
	}
	return nil
}

// passwordPolicyViolations reports every missing requirement at once rather
// than stopping at the first.
func passwordPolicyViolations(plaintext string) []string {
	var missing []string

	if utf8.RuneCountInString(plaintext) < passwordMinLen {
		missing = append(missing, fmt.Sprintf("password: must be at least %d characters", passwordMinLen))
	}
	if len(plaintext) > passwordMaxBytes {
		missing = append(missing, fmt.Sprintf("password: must be at most %d bytes", passwordMaxBytes))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLower {
		missing = append(missing, "password: must contain a lowercase letter")
	}
	if !hasUpper {
		missing = append(missing, "password: must contain an uppercase letter")
	}
	if !hasDigit {
		missing = append(missing, "password: must contain a digit")
	}
	if !hasSymbol {
		missing = append(missing, "password: must contain a symbol ("+passwordSymbols+")")
	}
	return missing
}
