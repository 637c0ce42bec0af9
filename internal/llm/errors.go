package llm

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps a failure that says nothing about the next model in
// the chain: timeouts, connection failures, 408/429/5xx.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// AuthError wraps a credential rejection (HTTP 401/403). Retrying the same
// model with the same key has no value; the chain still advances because a
// different provider may hold a different credential.
type AuthError struct {
	Err        error
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps an error as a credential rejection.
func NewAuthError(err error, statusCode int) *AuthError {
	return &AuthError{Err: err, StatusCode: statusCode}
}

// ProtocolError wraps a well-formed transport exchange that produced an
// unusable payload: no choices, no content, empty text, or a model id that
// routes nowhere.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError wraps an error as a protocol violation.
func NewProtocolError(err error) *ProtocolError {
	return &ProtocolError{Err: err}
}

// Attempt records one failed model try within a chain call.
type Attempt struct {
	Model string
	Err   error
}

// ExhaustedError reports that every model in the fallback chain failed.
// Attempts holds one entry per model, in chain order.
type ExhaustedError struct {
	Attempts []Attempt
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("llm: all %d fallback models failed, last error: %v", len(e.Attempts), e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// classifyStatus maps an HTTP status code failure into the taxonomy:
// 401/403 are credential rejections, everything else is transient.
func classifyStatus(err error, statusCode int) error {
	switch statusCode {
	case 401, 403:
		return NewAuthError(err, statusCode)
	default:
		return NewTransientError(err, statusCode)
	}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for explicit TransientError in chain.
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// Check for network-level transient errors.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Connection reset / refused / DNS.
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
