package common

import (
	"strings"

	"arcchain/arcerr"
)

// acceptedURLSchemes lists the URI schemes spec §4.C permits for any
// "URL-like" field the schema marks as URL-validated.
var acceptedURLSchemes = []string{"http://", "https://", "ipfs://", "ar://"}

// BoundedString fails with code if s exceeds max bytes.
func BoundedString(s string, max int, code arcerr.Code) error {
	if len(s) > max {
		return arcerr.New(code)
	}
	return nil
}

// BoundedCount fails with code if n exceeds max.
func BoundedCount(n, max int, code arcerr.Code) error {
	if n > max {
		return arcerr.New(code)
	}
	return nil
}

// RequireNonEmpty fails with code if s is empty; required fields are
// non-empty per invariant I1.
func RequireNonEmpty(s string, code arcerr.Code) error {
	if s == "" {
		return arcerr.New(code)
	}
	return nil
}

// ValidateResourceID checks the shared id charset rule used by both the
// agent registry and the MCP server registry (spec §4.C, supplemented by
// `programs/agent-registry/src/validation.rs`'s identical rule for MCP
// ids — one function, not duplicated per registry).
func ValidateResourceID(id string, maxLen int) error {
	if err := RequireNonEmpty(id, arcerr.CodeInvalidIDLength); err != nil {
		return err
	}
	if err := BoundedString(id, maxLen, arcerr.CodeInvalidIDLength); err != nil {
		return err
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return arcerr.New(arcerr.CodeInvalidServerIDFormat)
		}
	}
	return nil
}

// ValidateURL fails with code unless u begins with an accepted scheme.
func ValidateURL(u string, code arcerr.Code) error {
	for _, scheme := range acceptedURLSchemes {
		if strings.HasPrefix(u, scheme) {
			return nil
		}
	}
	return arcerr.New(code)
}

// ValidateExactlyOneDefault enforces invariant I2: if the slice is
// non-empty, exactly one entry may be true.
func ValidateExactlyOneDefault(isDefault []bool) error {
	if len(isDefault) == 0 {
		return nil
	}
	count := 0
	for _, d := range isDefault {
		if d {
			count++
		}
	}
	switch {
	case count == 0:
		return arcerr.New(arcerr.CodeMissingDefaultEndpoint)
	case count > 1:
		return arcerr.New(arcerr.CodeMultipleDefaultEndpoints)
	default:
		return nil
	}
}

// ValidateStatusRange fails with code unless s is one of the defined
// Status values.
func ValidateStatusRange(s Status, code arcerr.Code) error {
	if !s.Valid() {
		return arcerr.New(code)
	}
	return nil
}
