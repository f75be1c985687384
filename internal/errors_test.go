package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestGatewayError(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := &GatewayError{
		Op:  "query",
		URL: "http://localhost:5000/api/query",
		Err: originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "gateway error") {
		t.Errorf("GatewayError.Error() should contain 'gateway error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/api/query") {
		t.Errorf("GatewayError.Error() should contain URL, got: %q", errorMsg)
	}
	if strings.Contains(errorMsg, "status") {
		t.Errorf("GatewayError.Error() without status should not mention it, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("GatewayError should unwrap to the original error")
	}
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Error("GatewayError should match ErrGatewayUnavailable")
	}
}

func TestGatewayError_WithStatus(t *testing.T) {
	err := &GatewayError{
		Op:     "list",
		URL:    "http://localhost:5000/api/datasets",
		Status: 500,
		Err:    errors.New("internal error"),
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("GatewayError.Error() should contain status, got: %q", err.Error())
	}
}

func TestHistoryError(t *testing.T) {
	originalErr := errors.New("disk full")
	err := &HistoryError{Op: "save", ID: "abc", Err: originalErr}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "history error") {
		t.Errorf("HistoryError.Error() should contain 'history error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "abc") {
		t.Errorf("HistoryError.Error() should contain ID, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("HistoryError.Unwrap() should return original error")
	}

	noID := &HistoryError{Op: "open", Err: originalErr}
	if strings.Contains(noID.Error(), "open  ") {
		t.Errorf("HistoryError.Error() without ID has stray spacing: %q", noID.Error())
	}
}

func TestConfigError(t *testing.T) {
	originalErr := errors.New("yaml: line 2")
	err := &ConfigError{Path: "/etc/datachat.yaml", Err: originalErr}

	if !strings.Contains(err.Error(), "/etc/datachat.yaml") {
		t.Errorf("ConfigError.Error() should contain path, got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("ConfigError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/output/file.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
