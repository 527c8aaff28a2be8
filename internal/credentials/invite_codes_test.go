package credentials

import (
	"regexp"
	"testing"
)

var codePattern = regexp.MustCompile(`^[a-z]+-[a-z]+-[0-9]{4}$`)

func TestGenerateInviteCode(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{name: "single code", iterations: 1},
		{name: "many codes", iterations: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateInviteCode()
				if err != nil {
					t.Fatalf("GenerateInviteCode() error = %v", err)
				}
				if !codePattern.MatchString(code) {
					t.Errorf("code %q does not match %s", code, codePattern)
				}
			}
		})
	}
}

func TestGenerateInviteCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, _ := GenerateInviteCode()
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected varied codes, got %v", seen)
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	if got := NormalizeInviteCode("  Sabio-Halcon-0042 "); got != "sabio-halcon-0042" {
		t.Errorf("NormalizeInviteCode() = %q", got)
	}
}
