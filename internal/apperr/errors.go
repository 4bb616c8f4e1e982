// Package apperr defines the error taxonomy the retry and alert policies
// pivot on. Every component returns *Error values; callers classify with
// KindOf, Retryable, and IsAuthentication instead of matching strings.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an error with the failure class it belongs to.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindHTTPTransport
	KindSerialization
	KindAuthenticationFailed
	KindMessageProcessing
	KindPayloadConversion
	KindWebhookType
	KindConfiguration
	KindIO
	KindHMAC
)

func (k Kind) String() string {
	switch k {
	case KindHTTPTransport:
		return "HTTP request error"
	case KindSerialization:
		return "Serialization error"
	case KindAuthenticationFailed:
		return "Authentication failed"
	case KindMessageProcessing:
		return "Message processing error"
	case KindPayloadConversion:
		return "Payload conversion error"
	case KindWebhookType:
		return "Webhook type error"
	case KindConfiguration:
		return "Configuration error"
	case KindIO:
		return "IO error"
	case KindHMAC:
		return "HMAC error"
	default:
		return "Generic error"
	}
}

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a kind and message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindGeneric when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// Retryable reports whether a retry can plausibly change the outcome.
// Only transport-level failures qualify; everything else is deterministic
// within one request lifetime.
func Retryable(err error) bool {
	return KindOf(err) == KindHTTPTransport
}

// authMarkers survives only for errors that crossed a plain-error boundary
// before reaching us; kinded errors are matched structurally.
var authMarkers = []string{
	"Login failed",
	"Token",
	"authentication",
	"unauthorized",
	"Unauthorized",
	"401",
}

// IsAuthentication reports whether err should be treated as an
// authentication failure. Structural kind check first; the string fallback
// covers legacy error sources.
func IsAuthentication(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindAuthenticationFailed, KindHMAC:
		return true
	}
	msg := err.Error()
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
