package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures
type ErrorKind string

const (
	// KindInit: an adapter could not be constructed
	KindInit ErrorKind = "provider_init_error"
	// KindUnavailable: no usable provider remains
	KindUnavailable ErrorKind = "no_provider_available"
	// KindCall: a single generation call failed against the backend
	KindCall ErrorKind = "provider_call_error"
	// KindConfiguration: a model is missing from the pricing table
	KindConfiguration ErrorKind = "configuration_error"
)

// ProviderError is the structured error returned across package boundaries
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Provider, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewInitError reports a failed adapter construction
func NewInitError(provider string, err error) *ProviderError {
	return &ProviderError{Kind: KindInit, Provider: provider, Message: "failed to initialize provider", Err: err}
}

// NewUnavailableError reports that no provider can serve a request
func NewUnavailableError(message string) *ProviderError {
	return &ProviderError{Kind: KindUnavailable, Message: message}
}

// NewCallError wraps a backend failure for a single generation call
func NewCallError(provider string, err error) *ProviderError {
	return &ProviderError{Kind: KindCall, Provider: provider, Message: provider + " API error", Err: err}
}

// NewConfigurationError reports a configuration gap that was handled by a fallback
func NewConfigurationError(provider, message string) *ProviderError {
	return &ProviderError{Kind: KindConfiguration, Provider: provider, Message: message}
}

func isKind(err error, kind ErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}

// IsUnavailable reports whether err is a NoProviderAvailable error
func IsUnavailable(err error) bool { return isKind(err, KindUnavailable) }

// IsCallError reports whether err is a ProviderCall error
func IsCallError(err error) bool { return isKind(err, KindCall) }

// IsInitError reports whether err is a ProviderInit error
func IsInitError(err error) bool { return isKind(err, KindInit) }
