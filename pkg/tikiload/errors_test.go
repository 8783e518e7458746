package tikiload_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), tikiload.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), tikiload.ExitUsageError},
		{"accepts args", errors.New("accepts at most 1 arg(s), received 2"), tikiload.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--port\""), tikiload.ExitUsageError},
		{"general error", errors.New("something went wrong"), tikiload.ExitGeneralError},
		{"nil error", nil, tikiload.ExitSuccess},
		{"connection failed", tikiload.ErrConnectionFailed, tikiload.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tikiload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", tikiload.ErrInvalidConfig, tikiload.ExitConfigError},
		{"no input files", tikiload.ErrNoInputFiles, tikiload.ExitConfigError},
		{"schema failed", tikiload.ErrSchemaFailed, tikiload.ExitExecutionFailed},
		{"batch failed", tikiload.ErrBatchFailed, tikiload.ExitExecutionFailed},
		{"unsupported auth", tikiload.ErrUnsupportedAuthMethod, tikiload.ExitConfigError},
		{"wrapped sentinel", fmt.Errorf("ingestion failed: %w", tikiload.ErrBatchFailed), tikiload.ExitExecutionFailed},
		{"connection pattern", errors.New("dial tcp: connection refused"), tikiload.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tikiload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestBatchErrorMatchesSentinel(t *testing.T) {
	err := &tikiload.BatchError{ProductIDs: []int64{1, 2, 3}, Err: errors.New("boom")}

	if !errors.Is(err, tikiload.ErrBatchFailed) {
		t.Error("BatchError should match ErrBatchFailed")
	}
	if got := tikiload.ExitCodeForError(err); got != tikiload.ExitExecutionFailed {
		t.Errorf("ExitCodeForError(BatchError) = %d, want %d", got, tikiload.ExitExecutionFailed)
	}
}

func TestBatchErrorMessageTruncatesIDs(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	err := &tikiload.BatchError{ProductIDs: ids, Err: errors.New("deadlock detected")}

	msg := err.Error()
	for _, want := range []string{"8 product(s)", "1, 2, 3, 4, 5", "3 more", "deadlock detected"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestMalformedFileError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &tikiload.MalformedFileError{File: "products_3.json", Line: 12, Column: 8, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("MalformedFileError should unwrap to its cause")
	}
	if msg := err.Error(); !strings.Contains(msg, "products_3.json") || !strings.Contains(msg, "line 12") {
		t.Errorf("unexpected message: %q", msg)
	}
}
