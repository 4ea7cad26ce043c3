package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	sha256Prefix    = "sha256:"
	sha256HexLength = 64
)

var (
	ErrInvalidReference = errors.New("invalid image reference")
	ErrInvalidDigest    = errors.New("invalid digest")
)

// ValidateImageReference rejects empty references and shell metacharacters
func ValidateImageReference(reference string) error {
	if reference == "" {
		return fmt.Errorf("%w: image reference cannot be empty", ErrInvalidReference)
	}
	if strings.ContainsAny(reference, ";|`$") {
		return fmt.Errorf("%w: image reference contains disallowed characters", ErrInvalidReference)
	}
	return nil
}

// ValidateSHA256Digest accepts exactly "sha256:" followed by 64 hex characters
func ValidateSHA256Digest(digest string) error {
	hexPart, ok := strings.CutPrefix(digest, sha256Prefix)
	if !ok {
		return fmt.Errorf("%w: digest must start with %q", ErrInvalidDigest, sha256Prefix)
	}

	if len(hexPart) != sha256HexLength {
		return fmt.Errorf("%w: sha256 digest must be exactly %d hex characters", ErrInvalidDigest, sha256HexLength)
	}

	for _, ch := range hexPart {
		if !isHex(ch) {
			return fmt.Errorf("%w: sha256 digest must contain only hex characters", ErrInvalidDigest)
		}
	}

	return nil
}

func isHex(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
