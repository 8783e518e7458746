package tikiload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	summary, err := ingestor.Ingest(ctx, config)
//	if errors.Is(err, tikiload.ErrNoInputFiles) {
//	    // Nothing to load - point the user at the right directory
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoInputFiles indicates no product files were found at the input path.
	ErrNoInputFiles = errors.New("no input files found")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrBatchFailed indicates a transactional batch apply failed.
	ErrBatchFailed = errors.New("batch apply failed")

	// ErrSchemaFailed indicates table or index creation failed.
	ErrSchemaFailed = errors.New("schema creation failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// MalformedFileError reports a JSON syntax error in an entire input file.
// The file is skipped and the run continues; the error is counted in the
// run summary.
type MalformedFileError struct {
	File   string
	Line   int
	Column int
	Err    error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("invalid JSON in %s (line %d, col %d): %v", e.File, e.Line, e.Column, e.Err)
}

func (e *MalformedFileError) Unwrap() error { return e.Err }

// MalformedRecordError reports a single record that failed required-field
// validation. The record is skipped; the rest of the file is unaffected.
type MalformedRecordError struct {
	File   string
	Index  int // zero-based position of the record within its file
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: record %d: %s", e.File, e.Index, e.Reason)
}

// BatchError reports a failed transactional batch apply. It carries the ids
// of every product row in the failed batch so the offending input can be
// located without re-running with added diagnostics.
type BatchError struct {
	ProductIDs []int64
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to apply batch of %d product(s) (ids %s): %v",
		len(e.ProductIDs), formatIDRange(e.ProductIDs), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBatchFailed) match any BatchError.
func (e *BatchError) Is(target error) bool { return target == ErrBatchFailed }

// formatIDRange renders a compact preview of the batch's ids.
// Large batches show the first few ids followed by an ellipsis.
func formatIDRange(ids []int64) string {
	const maxShown = 5
	var b strings.Builder
	for i, id := range ids {
		if i == maxShown {
			fmt.Fprintf(&b, ", … %d more", len(ids)-maxShown)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrNoInputFiles):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrBatchFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrSchemaFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	// Cobra reports flag and argument misuse as plain errors; classify them
	// by message so the process exits with the usage code.
	errStr := err.Error()
	usagePatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"invalid argument",
		"required flag",
		"accepts ",
	}
	for _, pattern := range usagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
