package bridge

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a bridge error
type ErrorType int

const (
	// ErrTypeNetwork indicates a connection-level failure (dial, read, write)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeProtocol indicates an undecodable or malformed agent message
	ErrTypeProtocol
	// ErrTypeClosed indicates use of a bridge that was already torn down
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeClosed:
		return "Bridge Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// AgentError represents an error on the agent channel
type AgentError struct {
	Type     ErrorType // Category of error
	Message  string    // Human-readable error message
	Endpoint string    // Agent endpoint (for context)
	Err      error     // Underlying error (if any)
}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a network-category agent error
func NewNetworkError(message string, endpoint string, err error) *AgentError {
	return &AgentError{
		Type:     ErrTypeNetwork,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewProtocolError creates a protocol-category agent error
func NewProtocolError(message string, err error) *AgentError {
	return &AgentError{
		Type:    ErrTypeProtocol,
		Message: message,
		Err:     err,
	}
}

// NewClosedError creates an error for operations on a torn-down bridge
func NewClosedError(endpoint string) *AgentError {
	return &AgentError{
		Type:     ErrTypeClosed,
		Message:  "bridge has been closed",
		Endpoint: endpoint,
	}
}

// IsErrorType checks whether err is an AgentError of the given category
func IsErrorType(err error, et ErrorType) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Type == et
	}
	return false
}
