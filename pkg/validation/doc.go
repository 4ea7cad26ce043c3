/*
Package validation guards every place where an untrusted string crosses into
a filesystem operation.

Two groups of checks live here:

  - Identifier validation. ValidateIdentifier is applied to resource names
    (volumes, containers, networks) before they are used as store keys or as
    path segments. Names are 1-64 bytes, start with an ASCII letter or
    digit, and contain only letters, digits, '_', '-' and '.'. The sequences
    "..", "/" and "\" are rejected a second time as traversal attempts.

  - Path containment. RejectTraversalToken is lexical and runs first.
    CheckNotSymlink uses Lstat so a final symlink component is never
    followed. VerifyContained canonicalizes both sides with EvalSymlinks and
    requires the candidate to sit strictly below the root.

# Check Ordering

For destructive operations the caller runs:

	RejectTraversalToken(path)   // no syscalls
	CheckNotSymlink(path)        // Lstat
	VerifyContained(path, root)  // EvalSymlinks on both sides
	CheckNotSymlink(path)        // again, directly before os.RemoveAll

The last symlink check must be the final step before the destructive call.
An attacker can swap a directory for a symlink between any earlier check and
the removal.

# Errors

All failures wrap a sentinel so callers can classify them with errors.Is:

	err := validation.ValidateIdentifier("../etc")
	errors.Is(err, validation.ErrInvalidIdentifier) // true
	errors.Is(err, validation.ErrDisallowedChar)    // true

	var idErr *validation.IdentifierError
	errors.As(err, &idErr) // idErr.Char == '/'

ErrUnresolvablePath (the path vanished, permission denied) is kept distinct
from ErrEscaped (the path resolved to somewhere outside the root).
*/
package validation
