package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrTraversal         = errors.New("path traversal detected")
	ErrSymlinkNotAllowed = errors.New("symlink not allowed")
	ErrEscaped           = errors.New("path escapes expected root directory")
	ErrUnresolvablePath  = errors.New("failed to canonicalize path")
	ErrInvalidPath       = errors.New("invalid path")
)

// RejectTraversalToken is a purely lexical check that runs before any
// filesystem call.
func RejectTraversalToken(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: path contains '..': %s", ErrTraversal, path)
	}
	return nil
}

// CheckNotSymlink stats path without following the final component and
// rejects it if it is a symlink. A missing path is not an error.
//
// Call it immediately before the destructive operation it guards.
func CheckNotSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		// Absent (or unreadable) paths are left to the caller
		return nil
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: cannot operate on symlink: %s", ErrSymlinkNotAllowed, path)
	}
	return nil
}

// Canonicalize returns the absolute path with every symlink and ".." segment
// resolved against the live filesystem.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnresolvablePath, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnresolvablePath, path, err)
	}
	return resolved, nil
}

// VerifyContained canonicalizes both candidate and expectedRoot and requires
// the candidate to sit strictly inside the root.
func VerifyContained(candidate, expectedRoot string) error {
	root, err := Canonicalize(expectedRoot)
	if err != nil {
		return err
	}
	resolved, err := Canonicalize(candidate)
	if err != nil {
		return err
	}
	if !IsWithin(resolved, root) {
		return fmt.Errorf("%w: %s", ErrEscaped, resolved)
	}
	return nil
}

// IsWithin reports whether path lies strictly below root, respecting
// directory boundaries: /a/volx is not within /a/vol. Both arguments must
// already be canonical.
func IsWithin(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return false
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// ValidatePathSafe applies the full policy for a path that is about to be
// used for filesystem operations: lexical traversal check, then (only when
// the path exists) symlink rejection and containment in expectedRoot.
func ValidatePathSafe(path, expectedRoot string) error {
	if err := RejectTraversalToken(path); err != nil {
		return err
	}

	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrUnresolvablePath, path, err)
	}

	if err := CheckNotSymlink(path); err != nil {
		return err
	}

	return VerifyContained(path, expectedRoot)
}

// PathToString returns path unchanged if it is valid UTF-8
func PathToString(path string) (string, error) {
	if !utf8.ValidString(path) {
		return "", fmt.Errorf("%w: path contains invalid UTF-8", ErrInvalidPath)
	}
	return path, nil
}
