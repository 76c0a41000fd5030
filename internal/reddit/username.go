package reddit

import (
	"regexp"
	"strings"
)

var (
	profileURLPattern = regexp.MustCompile(`(?i)reddit\.com/(?:user|u)/([a-zA-Z0-9_-]+)`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)
)

// ExtractUsername accepts a profile URL, a u/ reference or a bare name.
func ExtractUsername(input string) string {
	input = strings.TrimSpace(input)
	if m := profileURLPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	input = strings.TrimPrefix(input, "/")
	if len(input) > 2 && strings.EqualFold(input[:2], "u/") {
		input = input[2:]
	}
	return strings.TrimSuffix(input, "/")
}

func ValidateUsername(username string) error {
	if username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Reason: "must be 1-20 letters, digits, '-' or '_'"}
	}
	return nil
}
