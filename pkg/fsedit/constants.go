package fsedit

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Command completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or backend settings
	ExitConnectionError   = 11 // Failed to connect to the storage backend
	ExitPickerDenied      = 12 // Directory selection or confirmation cancelled or denied
	ExitEnumerationFailed = 13 // Root directory could not be listed
	ExitReadFailed        = 14 // File could not be read
	ExitWriteFailed       = 15 // File could not be written
)

const (
	// DefaultMaxDepth bounds recursive traversal in case the host produces cycles.
	DefaultMaxDepth = 64

	// DefaultConcurrency is the number of sibling subtrees traversed in parallel.
	DefaultConcurrency = 4

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultForceApprovalCountdown is how long --force waits before replacing entries.
	DefaultForceApprovalCountdown = 3 * time.Second

	// DefaultTableName is the table used by the PostgreSQL backend.
	DefaultTableName = "fsedit_entries"
)

// DefaultExtensions is the editable-file allow-list used when none is configured.
var DefaultExtensions = []string{".json", ".md", ".rs", ".js"}
