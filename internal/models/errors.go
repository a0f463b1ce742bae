package models

import "fmt"

// Machine-readable conflict codes surfaced to clients
const (
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeAlreadyResolved         = "ALREADY_RESOLVED"
	CodeDuplicatePendingRequest = "DUPLICATE_PENDING_REQUEST"
	CodeServiceNotActive        = "SERVICE_NOT_ACTIVE"
	CodeServiceAlreadyActive    = "SERVICE_ALREADY_ACTIVE"
	CodeNotResolvedYet          = "NOT_RESOLVED_YET"
)

// ValidationError means the input itself is malformed or incomplete. It is
// surfaced to the caller verbatim and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError means a precondition was violated: a duplicate pending
// request, a decision on an already-resolved request, or an illegal state
// transition. The operation left all state unchanged.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a ConflictError with a machine-readable code
func NewConflictError(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

// NotFoundError means the referenced technician, document or request does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpstreamError means an external collaborator (document store, notification
// channel) failed. The failure is isolated to that call: already-committed
// ledger state is not rolled back and the specific step is safe to retry.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps an external collaborator failure
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}
