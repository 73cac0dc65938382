package credentials

import (
	"strings"
	"testing"
)

func TestGenerateActivationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateActivationCode()
		if err != nil {
			t.Fatalf("GenerateActivationCode() error = %v", err)
		}

		if !strings.HasPrefix(code, CodePrefix) {
			t.Errorf("code %q missing prefix %q", code, CodePrefix)
		}
		if len(code) != len(CodePrefix)+codeLength {
			t.Errorf("code %q has wrong length %d", code, len(code))
		}
		if code != strings.ToUpper(code) {
			t.Errorf("code %q is not uppercase", code)
		}
		for _, c := range code[len(CodePrefix):] {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Errorf("code %q contains character %q outside alphabet", code, c)
			}
		}
		seen[code] = true
	}

	// 100 draws from a 31^5 space should never collide
	if len(seen) < 95 {
		t.Errorf("too many duplicate codes: %d unique of 100", len(seen))
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase input",
			input: "tcc-7k4p2",
			want:  "TCC-7K4P2",
		},
		{
			name:  "surrounding whitespace",
			input: "  TCC-7K4P2 ",
			want:  "TCC-7K4P2",
		},
		{
			name:  "already normalized",
			input: "TCC-7K4P2",
			want:  "TCC-7K4P2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.input); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGeneratePin(t *testing.T) {
	for i := 0; i < 50; i++ {
		pin, err := GeneratePin()
		if err != nil {
			t.Fatalf("GeneratePin() error = %v", err)
		}
		if len(pin) != 4 {
			t.Errorf("pin %q has length %d, want 4", pin, len(pin))
		}
		for _, c := range pin {
			if c < '0' || c > '9' {
				t.Errorf("pin %q contains non-digit %q", pin, c)
			}
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		password, err := GenerateTempPassword()
		if err != nil {
			t.Fatalf("GenerateTempPassword() error = %v", err)
		}
		if len(password) != 12 {
			t.Errorf("password length %d, want 12", len(password))
		}
		if seen[password] {
			t.Errorf("duplicate password generated: %s", password)
		}
		seen[password] = true
	}
}
