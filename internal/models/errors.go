package models

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so wrapped sentinels compare
// equal to errors built with NewDomainError.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidComponent  = "INVALID_COMPONENT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeLocked            = "LOCKED"
	CodeInvalidInput      = "INVALID_INPUT"
)

var (
	ErrNotFound          = NewDomainError(CodeNotFound, "resource not found")
	ErrInvalidComponent  = NewDomainError(CodeInvalidComponent, "invalid component")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "transition not allowed in current state")
	ErrLocked            = NewDomainError(CodeLocked, "reservation component is being modified")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "invalid input provided")
)
