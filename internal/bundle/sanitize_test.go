package bundle

import (
	"regexp"
	"testing"
)

var labelPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "alice", "alice"},
		{"uppercase folded", "Alice Smith", "alice-smith"},
		{"digits kept", "operator42", "operator42"},
		{"underscore and dash kept", "ops_team-7", "ops_team-7"},
		{"punctuation replaced", "a.b/c@d", "a-b-c-d"},
		{"accents replaced", "José", "jos-"},
		{"empty maps to default", "", DefaultLabel},
		{"all invalid replaced", "!!!", "---"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.input); got != tt.want {
				t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeLabel_Idempotent(t *testing.T) {
	inputs := []string{"", "Alice Smith", "a.b/c@d", "already-safe_1", "ÀÉÎ"}
	for _, in := range inputs {
		once := SanitizeLabel(in)
		twice := SanitizeLabel(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeLabel_OutputAlphabet(t *testing.T) {
	inputs := []string{"", "Alice", "!@#$%^&*()", "ümlaut", "tab\there"}
	for _, in := range inputs {
		out := SanitizeLabel(in)
		if !labelPattern.MatchString(out) {
			t.Errorf("SanitizeLabel(%q) = %q does not match %s", in, out, labelPattern)
		}
	}
}

func FuzzSanitizeLabel(f *testing.F) {
	f.Add("Alice Smith")
	f.Add("")
	f.Add("!@#")
	f.Add("日本語")

	f.Fuzz(func(t *testing.T, input string) {
		out := SanitizeLabel(input)
		if !labelPattern.MatchString(out) {
			t.Errorf("SanitizeLabel(%q) = %q escapes output alphabet", input, out)
		}
		if again := SanitizeLabel(out); again != out {
			t.Errorf("SanitizeLabel not idempotent for %q: %q != %q", input, out, again)
		}
	})
}
