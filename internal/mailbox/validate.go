package mailbox

import (
	"regexp"
	"strings"
)

// Address is a sender address that has passed validation. The only way to
// obtain one is ValidateAddress, which keeps unvalidated strings out of
// criteria construction entirely.
type Address struct {
	addr string
}

// String returns the normalized address text.
func (a Address) String() string { return a.addr }

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool { return a.addr == "" }

// addressPattern is a deliberately strict local@domain grammar. Legitimate
// but exotic addresses (quoted local parts, IP-literal domains) are
// rejected rather than escaped: recall is traded for injection safety.
var addressPattern = regexp.MustCompile(
	`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
)

// maxAddressLength is the RFC 5321 path limit.
const maxAddressLength = 254

// ValidateAddress validates and normalizes a raw sender address for safe
// use in search criteria. It enforces the strict grammar, the length
// bound, and the absence of characters with meaning in protocol quoting
// (double quote, backslash, CR, LF, NUL). The returned address is
// lowercased. Fails with *ValidationError.
func ValidateAddress(raw string) (Address, error) {
	addr := strings.TrimSpace(raw)

	if addr == "" {
		return Address{}, &ValidationError{Field: "address", Message: "empty address"}
	}
	if len(addr) > maxAddressLength {
		return Address{}, &ValidationError{
			Field:   "address",
			Message: "address exceeds maximum length",
		}
	}
	if i := strings.IndexAny(addr, "\"\\\r\n\x00"); i >= 0 {
		return Address{}, &ValidationError{
			Field:   "address",
			Message: "address contains a forbidden character",
		}
	}
	if !addressPattern.MatchString(addr) {
		return Address{}, &ValidationError{
			Field:   "address",
			Message: "address does not match local@domain grammar",
		}
	}

	return Address{addr: strings.ToLower(addr)}, nil
}

// ValidateFolderName checks a caller-supplied folder name before it is
// used in a select, copy, or create command. The protocol library quotes
// folder names itself; this only rejects control characters and empty or
// oversized names.
func ValidateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", &ValidationError{Field: "folder", Message: "empty folder name"}
	}
	if len(name) > 512 {
		return "", &ValidationError{Field: "folder", Message: "folder name too long"}
	}
	if strings.IndexAny(name, "\r\n\x00") >= 0 {
		return "", &ValidationError{
			Field:   "folder",
			Message: "folder name contains a control character",
		}
	}

	return name, nil
}

// ValidateSecret applies basic bounds to an app password before a login
// attempt is made with it.
func ValidateSecret(secret string) (string, error) {
	secret = strings.TrimSpace(secret)

	if len(secret) < 8 {
		return "", &ValidationError{
			Field:   "secret",
			Message: "secret must be at least 8 characters",
		}
	}
	if len(secret) > 100 {
		return "", &ValidationError{
			Field:   "secret",
			Message: "secret must be at most 100 characters",
		}
	}

	return secret, nil
}
