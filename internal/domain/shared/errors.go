package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrTenantSyncActive    = NewDomainError("SYNC_ACTIVE", "A sync is already running for this tenant")
	ErrFieldLocked         = NewDomainError("FIELD_LOCKED", "Field mapping is locked and cannot be overridden")
	ErrFeedDisabled        = NewDomainError("FEED_DISABLED", "Feed is disabled for this tenant")
	ErrUnknownAttribute    = NewDomainError("UNKNOWN_ATTRIBUTE", "Attribute is not part of the feed specification")
)
