package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML or price parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePersistence represents store-related errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypePublisher represents delivery errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents malformed listing data
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// SniperError is the error type shared by every pipeline stage
type SniperError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *SniperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *SniperError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *SniperError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new SniperError
func New(errType ErrorType, component, message string, err error) *SniperError {
	return &SniperError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *SniperError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *SniperError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *SniperError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *SniperError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPersistence creates a new store error
func NewPersistence(component, message string, err error) *SniperError {
	return New(ErrorTypePersistence, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *SniperError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *SniperError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *SniperError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// IsType reports whether err (or anything it wraps) is a SniperError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *SniperError
	if errors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// IsRetryable reports whether err is a retryable SniperError
func IsRetryable(err error) bool {
	var se *SniperError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
