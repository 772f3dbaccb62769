// Package errs defines the error-kind sentinels shared across indra_db's
// packages. Callers distinguish kinds with errors.Is; wrapped detail is
// added with fmt.Errorf("...: %w", ...) rather than a generated error type,
// matching the plain sentinel-error idiom the rest of the module follows.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrIO signals an underlying file/OS failure. Fatal to the current operation.
	ErrIO = errors.New("io error")
	// ErrSerialization signals an entity or trie node failed to encode/decode.
	ErrSerialization = errors.New("serialization error")
	// ErrNotFound signals a requested key/hash/id/ref is absent, or that a
	// commit was attempted with nothing to commit.
	ErrNotFound = errors.New("not found")
	// ErrInvalidHash signals malformed hex or a hash of the wrong length.
	ErrInvalidHash = errors.New("invalid hash")
	// ErrCorruption signals an on-disk invariant was violated.
	ErrCorruption = errors.New("corruption detected")
	// ErrInvalidFile signals a header check failed (e.g. bad magic).
	ErrInvalidFile = errors.New("invalid database file")
	// ErrVersionMismatch signals the on-disk format version does not match
	// what this build expects.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrBranchNotFound signals a named branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrRefNotFound signals a named ref does not exist.
	ErrRefNotFound = errors.New("ref not found")
	// ErrMergeConflict is reserved for future automated-merge support.
	ErrMergeConflict = errors.New("merge conflict")
	// ErrEmbedding wraps any failure surfaced by an embedder collaborator.
	ErrEmbedding = errors.New("embedding error")
	// ErrLocked signals the database file is held by another owner.
	ErrLocked = errors.New("database is locked")
	// ErrDirtyWorkingTree signals a checkout was attempted with uncommitted
	// working-tree changes pending; distinct from ErrBranchNotFound and
	// ErrRefNotFound so callers can tell "no such branch" apart from
	// "commit or discard first".
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")
)

// VersionMismatch wraps ErrVersionMismatch with the expected and found
// format versions so callers can report both while still matching with
// errors.Is(err, ErrVersionMismatch).
func VersionMismatch(expected, found uint32) error {
	return fmt.Errorf("%w: expected %d, found %d", ErrVersionMismatch, expected, found)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Corruptionf wraps ErrCorruption with a formatted detail message.
func Corruptionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorruption}, args...)...)
}
