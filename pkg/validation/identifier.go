package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxNameLength is the longest accepted resource name, in bytes
	MaxNameLength = 64
)

var (
	// ErrInvalidIdentifier matches every identifier rejection
	ErrInvalidIdentifier = errors.New("invalid identifier")

	ErrEmptyName        = errors.New("name cannot be empty")
	ErrTooLong          = fmt.Errorf("name exceeds maximum length of %d bytes", MaxNameLength)
	ErrBadStart         = errors.New("name must start with a letter or number")
	ErrDisallowedChar   = errors.New("name contains a disallowed character")
	ErrTraversalAttempt = errors.New("name contains path traversal sequences")
)

// IdentifierError describes why a name was rejected
type IdentifierError struct {
	Name   string
	Reason error
	Char   rune // set for ErrDisallowedChar
}

func (e *IdentifierError) Error() string {
	if errors.Is(e.Reason, ErrDisallowedChar) {
		return fmt.Sprintf("invalid character %q in name", e.Char)
	}
	return e.Reason.Error()
}

// Is lets errors.Is match both the specific reason and ErrInvalidIdentifier
func (e *IdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier || target == e.Reason
}

// ValidateIdentifier validates an untrusted resource name (volume, container,
// network) before it is used as a lookup key or a path segment.
// Rules are applied in order and the first violation is returned.
func ValidateIdentifier(name string) error {
	if name == "" {
		return &IdentifierError{Name: name, Reason: ErrEmptyName}
	}

	if len(name) > MaxNameLength {
		return &IdentifierError{Name: name, Reason: ErrTooLong}
	}

	if !isASCIIAlnum(rune(name[0])) {
		return &IdentifierError{Name: name, Reason: ErrBadStart}
	}

	for _, ch := range name {
		if !isASCIIAlnum(ch) && ch != '_' && ch != '-' && ch != '.' {
			return &IdentifierError{Name: name, Reason: ErrDisallowedChar, Char: ch}
		}
	}

	// Redundant with the character check above. Keep it in case the
	// allowed character set is ever relaxed.
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return &IdentifierError{Name: name, Reason: ErrTraversalAttempt}
	}

	return nil
}

func isASCIIAlnum(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
