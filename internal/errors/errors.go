// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidBarSequence = errors.New("invalid bar sequence")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrUnknownTimeframe   = errors.New("unknown timeframe")
	ErrNoData             = errors.New("no data")
	ErrNotConnected       = errors.New("not connected")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// IngestError represents a rejected cache ingestion call. The cache state is
// unchanged when one of these is returned.
type IngestError struct {
	Timeframe string
	Reason    string
	Err       error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest error [%s]: %s: %v", e.Timeframe, e.Reason, e.Err)
	}
	return fmt.Sprintf("ingest error [%s]: %s", e.Timeframe, e.Reason)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError.
func NewIngestError(timeframe, reason string, err error) *IngestError {
	return &IngestError{
		Timeframe: timeframe,
		Reason:    reason,
		Err:       err,
	}
}

// DetectorError represents a failure inside a single detector during a scan.
// It is reported as a partial-failure note for its timeframe and never
// aborts the scan.
type DetectorError struct {
	Detector  string
	Timeframe string
	Err       error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector error [%s] %s: %v", e.Detector, e.Timeframe, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// NewDetectorError creates a new DetectorError.
func NewDetectorError(detector, timeframe string, err error) *DetectorError {
	return &DetectorError{
		Detector:  detector,
		Timeframe: timeframe,
		Err:       err,
	}
}

// FeedError represents an error from the market-data feed.
type FeedError struct {
	Endpoint string
	Symbol   string
	Err      error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed error [%s] %s: %v", e.Endpoint, e.Symbol, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError.
func NewFeedError(endpoint, symbol string, err error) *FeedError {
	return &FeedError{
		Endpoint: endpoint,
		Symbol:   symbol,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
