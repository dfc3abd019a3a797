package usecase

import (
	"errors"

	"github.com/xavierca1/homni-leads/internal/entity"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidStage      = "INVALID_STAGE"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeLeadNotFound      = "LEAD_NOT_FOUND"
	CodeStatusConflict    = "STATUS_CONFLICT"
	CodeDuplicateLead     = "DUPLICATE_LEAD"
	CodeDatabase          = "DATABASE_ERROR"

	// Codes returned by the hosted database / its REST gateway.
	CodeSessionExpired   = "PGRST301"
	CodePermissionDenied = "42501"
)

var userMessages = map[string]string{
	CodeSessionExpired:   "Your session has expired. Please log in again.",
	CodePermissionDenied: "You do not have permission to perform this action.",
}

const genericUserMessage = "Something went wrong. Please try again."

// DomainError is a business rule violation the caller can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps infrastructure failures.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by err, mapping access errors onto the
// database codes they originate from.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, entity.ErrSessionExpired):
		return CodeSessionExpired
	case errors.Is(err, entity.ErrPermissionDenied):
		return CodePermissionDenied
	}

	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// UserMessage is the text safe to show an end user for err.
func UserMessage(err error) string {
	code := ErrorCode(err)
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return genericUserMessage
}

func technical(msg string, err error) error {
	code := CodeDatabase
	switch {
	case errors.Is(err, entity.ErrSessionExpired):
		code = CodeSessionExpired
	case errors.Is(err, entity.ErrPermissionDenied):
		code = CodePermissionDenied
	}
	return &TechnicalError{Code: code, Message: msg, Err: err}
}
