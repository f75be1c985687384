package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDatasetSelected is returned when a query is submitted before a dataset is active
	ErrNoDatasetSelected = errors.New("no dataset selected")
	// ErrGatewayUnavailable matches every failed call to the analysis service
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrInvalidUploadFormat rejects non-archive uploads before any transport
	ErrInvalidUploadFormat = errors.New("invalid upload format: expected a .zip archive")
	// ErrUnknownDataset is returned when selecting an identifier not in the collection
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrQueryInFlight is returned while an earlier query has not settled
	ErrQueryInFlight = errors.New("a query is already in progress")
	// ErrBlankQuery marks a submit with only whitespace; nothing is recorded
	ErrBlankQuery = errors.New("query is empty")
	// ErrTranscriptNotFound is returned by the archive for unknown transcript ids
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// GatewayError represents a failed call to the remote analysis service
type GatewayError struct {
	Op     string // "list", "query", "upload"
	URL    string
	Status int // HTTP status, 0 when no response arrived
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway error: %s %s (status %d): %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *GatewayError) Unwrap() []error {
	return []error{ErrGatewayUnavailable, e.Err}
}

// HistoryError represents errors reading or writing the transcript archive
type HistoryError struct {
	Op  string // "open", "save", "load", "list", "delete"
	ID  string
	Err error
}

func (e *HistoryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("history error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("history error: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *HistoryError) Unwrap() error {
	return e.Err
}

// ConfigError represents errors loading configuration
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
