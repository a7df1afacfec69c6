package fsedit

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	entries, err := engine.Refresh(ctx, root)
//	if errors.Is(err, fsedit.ErrEnumerationFailed) {
//	    // previous tree is still displayed
//	}
var (
	// ErrPickerCancelled indicates the user backed out of the directory picker.
	ErrPickerCancelled = errors.New("directory selection cancelled")

	// ErrPickerDenied indicates the host refused access to the chosen directory.
	ErrPickerDenied = errors.New("directory access denied")

	// ErrEnumerationFailed indicates a directory's children could not be listed.
	ErrEnumerationFailed = errors.New("enumeration failed")

	// ErrReadFailed indicates a file could not be read.
	ErrReadFailed = errors.New("read failed")

	// ErrWriteFailed indicates a file could not be written and committed.
	ErrWriteFailed = errors.New("write failed")

	// ErrKindMismatch indicates a capability was used for the wrong kind of entry.
	ErrKindMismatch = errors.New("capability kind mismatch")

	// ErrDepthExceeded indicates traversal went deeper than the configured limit.
	ErrDepthExceeded = errors.New("maximum traversal depth exceeded")

	// ErrSuperseded indicates a newer action started before this one completed,
	// so its result was not applied.
	ErrSuperseded = errors.New("superseded by a newer action")

	// ErrNotEditable indicates the entry is a directory or has an unsupported extension.
	ErrNotEditable = errors.New("entry is not editable")

	// ErrNotFound indicates a path does not resolve to an entry.
	ErrNotFound = errors.New("entry not found")

	// ErrOutsideRoot indicates a handle escapes the granted directory.
	ErrOutsideRoot = errors.New("path is outside the granted directory")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedBackend indicates the requested storage backend is unknown.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrUnsupportedAuthMethod indicates the requested database authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrApprovalDenied indicates the user declined a destructive operation.
	ErrApprovalDenied = errors.New("operation not approved")

	// ErrConnectionFailed indicates a backend connection could not be established.
	ErrConnectionFailed = errors.New("connection failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedBackend),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrPickerCancelled), errors.Is(err, ErrPickerDenied), errors.Is(err, ErrApprovalDenied):
		return ExitPickerDenied
	case errors.Is(err, ErrEnumerationFailed):
		return ExitEnumerationFailed
	case errors.Is(err, ErrReadFailed), errors.Is(err, ErrNotFound), errors.Is(err, ErrNotEditable):
		return ExitReadFailed
	case errors.Is(err, ErrWriteFailed):
		return ExitWriteFailed
	}

	// cobra argument and flag errors carry no sentinel
	errStr := err.Error()
	if strings.Contains(errStr, "accepts ") && strings.Contains(errStr, "arg(s)") {
		return ExitUsageError
	}
	for _, pattern := range usagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"required flag",
	"invalid argument",
	"missing required argument",
}
