package app

import "fmt"

// DomainError is the error shape surfaced at the HTTP edge. Code is one of
// the stable machine-readable codes clients switch on (VALIDATION_ERROR,
// FORBIDDEN, NOT_FOUND, EXPORT_FAILED, ...); Message is display text.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
