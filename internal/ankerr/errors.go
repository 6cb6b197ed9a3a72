// Package ankerr holds the sentinel error kinds shared across Ankidote's
// components, so callers can classify a failure with errors.Is instead of
// string-matching messages. Each kind is wrapped with call-site context via
// fmt.Errorf("...: %w", ...), matching the teacher's plain error-wrapping idiom.
package ankerr

import "errors"

var (
	// ErrInvalidInput covers missing required arguments, malformed JSON,
	// unparseable paths, invalid regexes, and configs naming an unknown populator.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound covers an unknown model/template/field/deck/operation/
	// populator/resource name.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers a duplicate model/field/template name on create or
	// rename, and a non-injective migrate-notes mapping.
	ErrConflict = errors.New("conflict")

	// ErrValidationFailed covers an operation precondition check reporting
	// one or more errors.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStateError covers running an operation on a destroyed context, or
	// attempting a write in read-only mode.
	ErrStateError = errors.New("state error")

	// ErrPackageInvalid covers an archive with no recognized database file.
	ErrPackageInvalid = errors.New("package invalid")

	// ErrOutputExists covers an output path that already exists.
	ErrOutputExists = errors.New("output exists")

	// ErrPersistenceFailed covers a SQL error while applying the change log.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrResolverLimit covers meta-op recursion exceeding depth or op-count caps.
	ErrResolverLimit = errors.New("resolver limit exceeded")

	// ErrExternal covers populator I/O (network, provider) errors.
	ErrExternal = errors.New("external error")
)
