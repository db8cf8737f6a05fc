package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Mode selects the identifier grammar
type Mode string

const (
	// ModeStrict accepts lowercase letters only (exam-style standalone names)
	ModeStrict Mode = "strict"
	// ModePermissive accepts letters, digits and dot separators
	ModePermissive Mode = "permissive"
)

var (
	ipv4Pattern       = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	strictPattern     = regexp.MustCompile(`^[a-z]+$`)
	permissivePattern = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
)

// IsValidIPv4 reports whether s is four dot-separated groups of 1-3 digits, each in [0,255].
// The pattern admits "999"; the range check rejects it.
func IsValidIPv4(s string) bool {
	if !ipv4Pattern.MatchString(s) {
		return false
	}
	for _, octet := range strings.Split(s, ".") {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// IsValidIdentifier reports whether s is a non-empty name under the given mode.
// Unknown modes reject everything.
func IsValidIdentifier(s string, mode Mode) bool {
	switch mode {
	case ModeStrict:
		return strictPattern.MatchString(s)
	case ModePermissive:
		return permissivePattern.MatchString(s)
	default:
		return false
	}
}

// ParseMode converts a config value into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModePermissive:
		return ModePermissive, nil
	}
	return "", fmt.Errorf("unknown naming mode %q (want strict or permissive)", s)
}

// Describe returns the human-readable rule for a mode, used in re-prompts
func (m Mode) Describe() string {
	if m == ModeStrict {
		return "lowercase alphabetic only"
	}
	return "letters, digits and dots only"
}
