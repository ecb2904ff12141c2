package validation

import (
	"os"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Valid email", "user@example.com", true},
		{"Valid email with subdomain", "user@mail.example.com", true},
		{"Empty email", "", false},
		{"Email without @", "userexample.com", false},
		{"Email without domain", "user@", false},
		{"Email with spaces", "user @example.com", false},
		{"Valid email with dots", "user.name@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEmail(tt.email)
			if result != tt.expected {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, result, tt.expected)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"Email with uppercase", "User@EXAMPLE.COM", "user@example.com"},
		{"Email with spaces", "  user@example.com  ", "user@example.com"},
		{"Lowercase email", "user@example.com", "user@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeEmail(tt.email)
			if result != tt.expected {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.email, result, tt.expected)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected bool
	}{
		{"Valid username", "john_doe", true},
		{"Valid username with numbers", "user123", true},
		{"Minimum length", "abc", true},
		{"Too short", "ab", false},
		{"With spaces", "john doe", false},
		{"With special chars", "john-doe", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateUsername(tt.username)
			if result != tt.expected {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, result, tt.expected)
			}
		})
	}
}

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"Trims whitespace", "  hello  ", 100, "hello"},
		{"Truncates over max", strings.Repeat("a", 10), 4, "aaaa"},
		{"Zero max means no limit", strings.Repeat("b", 10), 0, strings.Repeat("b", 10)},
		{"Whitespace only becomes empty", "   ", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimAndLimit(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestMaxMessageLengthEnvOverride(t *testing.T) {
	os.Setenv("MAX_MESSAGE_LENGTH", "200")
	defer os.Unsetenv("MAX_MESSAGE_LENGTH")

	if got := MaxMessageLength(); got != 200 {
		t.Errorf("MaxMessageLength() = %d, want 200", got)
	}

	os.Setenv("MAX_MESSAGE_LENGTH", "not-a-number")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("MaxMessageLength() with bad env = %d, want default 4000", got)
	}
}

func TestMaxGroupNameLengthDefault(t *testing.T) {
	os.Unsetenv("MAX_GROUP_NAME_LENGTH")
	if got := MaxGroupNameLength(); got != 100 {
		t.Errorf("MaxGroupNameLength() = %d, want 100", got)
	}
}
