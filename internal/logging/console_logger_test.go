package logging

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// captureStderr runs fn while stderr is redirected to a pipe and returns
// everything the function wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	output := captureStderr(t, func() {
		NewConsoleLogger(true).Verbose("scanning %s", "./data")
	})

	expected := "[VERBOSE] scanning ./data\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	output := captureStderr(t, func() {
		NewConsoleLogger(false).Verbose("scanning %s", "./data")
	})

	if output != "" {
		t.Errorf("Expected no output, got %q", output)
	}
}

func TestConsoleLogger_Info(t *testing.T) {
	output := captureStderr(t, func() {
		NewConsoleLogger(false).Info("Loaded %d products", 42)
	})

	expected := "Loaded 42 products\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestConsoleLogger_Warn(t *testing.T) {
	output := captureStderr(t, func() {
		NewConsoleLogger(false).Warn("products_1.json: skipped %d item(s)", 3)
	})

	expected := "[WARN] products_1.json: skipped 3 item(s)\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestConsoleLogger_Error(t *testing.T) {
	output := captureStderr(t, func() {
		NewConsoleLogger(false).Error("insert failed: %v", io.ErrUnexpectedEOF)
	})

	expected := "[ERROR] insert failed: unexpected EOF\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestConsoleLogger_NoFormatArgs(t *testing.T) {
	// Messages containing % verbs must pass through untouched when no
	// args are supplied.
	output := captureStderr(t, func() {
		NewConsoleLogger(false).Info("progress: 50%")
	})

	expected := "progress: 50%\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestNullLogger_DiscardsEverything(t *testing.T) {
	output := captureStderr(t, func() {
		l := NewNullLogger()
		l.Verbose("v")
		l.Info("i")
		l.Warn("w")
		l.Error("e")
	})

	if output != "" {
		t.Errorf("Expected no output, got %q", output)
	}
}
