package llm

import "fmt"

// ErrorType represents the category of completion failure.
type ErrorType int

const (
	ErrTypeConnection ErrorType = iota
	ErrTypeServer
	ErrTypeEnvelope
	ErrTypeEmptyResponse
	ErrTypeMalformedOutput
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeConnection:
		return "connection error"
	case ErrTypeServer:
		return "server error"
	case ErrTypeEnvelope:
		return "invalid envelope"
	case ErrTypeEmptyResponse:
		return "empty response"
	case ErrTypeMalformedOutput:
		return "malformed model output"
	case ErrTypeUnknown:
		return "unknown error"
	default:
		return "unknown error"
	}
}

// Error represents a completion endpoint failure with additional context.
// Every category is retryable within a single call's attempt budget; the
// Retryable flag records that for logging and for callers that wrap the
// client in their own policies.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Type.String(), e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewConnectionError creates an error for a network-level failure.
func NewConnectionError(message string) *Error {
	return &Error{
		Type:      ErrTypeConnection,
		Message:   message,
		Retryable: true,
	}
}

// NewServerError creates an error for a non-success HTTP status. The response
// body travels in the message so the final diagnostic shows what the server
// said.
func NewServerError(statusCode int, body string) *Error {
	return &Error{
		Type:       ErrTypeServer,
		Message:    body,
		StatusCode: statusCode,
		Retryable:  true,
	}
}

// NewEnvelopeError creates an error for a response body that is not JSON.
func NewEnvelopeError(message string) *Error {
	return &Error{
		Type:      ErrTypeEnvelope,
		Message:   message,
		Retryable: true,
	}
}

// NewEmptyResponseError creates an error for an empty model answer.
func NewEmptyResponseError() *Error {
	return &Error{
		Type:      ErrTypeEmptyResponse,
		Message:   "model returned an empty answer",
		Retryable: true,
	}
}

// NewMalformedOutputError creates an error for a model answer that is not
// itself valid JSON.
func NewMalformedOutputError() *Error {
	return &Error{
		Type:      ErrTypeMalformedOutput,
		Message:   "model output is not valid JSON",
		Retryable: true,
	}
}
