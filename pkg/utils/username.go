package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]*$`)
	usernameStrip   = regexp.MustCompile(`[^a-z0-9_]+`)
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// ValidateUsername accepts 3-20 ASCII letters, digits or underscores, not
// starting with an underscore.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	switch n := len(username); {
	case n < MinUsernameLength:
		return invalid("username", "Username must be at least 3 characters")
	case n > MaxUsernameLength:
		return invalid("username", "Username must be at most 20 characters")
	}
	if !usernamePattern.MatchString(username) {
		if strings.HasPrefix(username, "_") {
			return invalid("username", "Username must start with a letter or number")
		}
		return invalid("username", "Username can only contain letters, numbers and underscores")
	}
	return nil
}

// ValidateEmail accepts a bare address only, no display name.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return invalid("email", "Email is invalid")
	}
	return nil
}

// NormalizeUsername is the stored, case-folded form used for uniqueness.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// UsernameFromEmail derives a valid username base from an address's local
// part, leaving room for a numeric suffix of up to five characters.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	base := strings.Trim(usernameStrip.ReplaceAllString(local, ""), "_")
	if len(base) < MinUsernameLength {
		base = "user" + base
	}
	if len(base) > MaxUsernameLength-5 {
		base = base[:MaxUsernameLength-5]
	}
	return base
}
