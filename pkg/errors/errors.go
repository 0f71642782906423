package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport-level failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParse represents HTML parsing errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeValidation represents records missing required fields
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStoreConflict represents upsert slug clashes
	ErrorTypeStoreConflict ErrorType = "store_conflict"
	// ErrorTypeConfiguration represents configuration errors (unknown source, bad env)
	ErrorTypeConfiguration ErrorType = "configuration"
)

// IngestError represents an ingestion pipeline error
type IngestError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the failed operation is worth retrying
func (e *IngestError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeStoreConflict:
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error should abort the whole run
func (e *IngestError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration
}

// New creates a new IngestError
func New(errType ErrorType, source, message string, err error) *IngestError {
	return &IngestError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *IngestError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParse creates a new parsing error
func NewParse(source, message string, err error) *IngestError {
	return New(ErrorTypeParse, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *IngestError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *IngestError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewStoreConflict creates a new store conflict error
func NewStoreConflict(source, message string, err error) *IngestError {
	return New(ErrorTypeStoreConflict, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *IngestError {
	return New(ErrorTypeConfiguration, "", message, err)
}
