package mailbox

import (
	"strings"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"simple", "alice@example.com", "alice@example.com", true},
		{"uppercase normalized", "Bob.Smith@Example.COM", "bob.smith@example.com", true},
		{"plus tag", "news+tag@example.co.uk", "news+tag@example.co.uk", true},
		{"surrounding space trimmed", "  carol@example.org  ", "carol@example.org", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"missing at", "alice.example.com", "", false},
		{"missing tld", "alice@localhost", "", false},
		{"short tld", "alice@example.c", "", false},
		{"embedded space", "alice smith@example.com", "", false},
		{"double quote", `alice"@example.com`, "", false},
		{"quoted injection", `a@x.com" OR ALL`, "", false},
		{"backslash", `a\b@example.com`, "", false},
		{"carriage return", "a@x.com\r\nA1 LOGOUT", "", false},
		{"line feed", "a@x.com\nSEARCH ALL", "", false},
		{"nul byte", "a@x.com\x00", "", false},
		{"over length", strings.Repeat("a", 250) + "@x.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ValidateAddress(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("ValidateAddress(%q) = %v, want ok", tt.input, err)
				}
				if addr.String() != tt.want {
					t.Fatalf("ValidateAddress(%q) = %q, want %q", tt.input, addr.String(), tt.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateAddress(%q) = %q, want error", tt.input, addr.String())
			}
			if !IsValidationError(err) {
				t.Fatalf("ValidateAddress(%q) error type = %T, want ValidationError", tt.input, err)
			}
			if !addr.IsZero() {
				t.Fatalf("ValidateAddress(%q) returned non-zero address on error", tt.input)
			}
		})
	}
}

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "INBOX", "INBOX", true},
		{"nested", "[Gmail]/Trash", "[Gmail]/Trash", true},
		{"space inside", "Deleted Items", "Deleted Items", true},
		{"trimmed", " Archive ", "Archive", true},
		{"empty", "", "", false},
		{"crlf", "INBOX\r\nA1 DELETE INBOX", "", false},
		{"nul", "INBOX\x00", "", false},
		{"too long", strings.Repeat("x", 513), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFolderName(tt.input)
			if tt.ok {
				if err != nil || got != tt.want {
					t.Fatalf("ValidateFolderName(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateFolderName(%q) = %q, want error", tt.input, got)
			}
		})
	}
}

func TestValidateSecret(t *testing.T) {
	if _, err := ValidateSecret("short"); err == nil {
		t.Fatal("want error for a secret under 8 characters")
	}
	if _, err := ValidateSecret(strings.Repeat("x", 101)); err == nil {
		t.Fatal("want error for a secret over 100 characters")
	}
	got, err := ValidateSecret("  valid-app-password  ")
	if err != nil {
		t.Fatalf("ValidateSecret: %v", err)
	}
	if got != "valid-app-password" {
		t.Fatalf("ValidateSecret did not trim: %q", got)
	}
}
