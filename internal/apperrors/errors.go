package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with the current state of a resource.
var ErrConflict = errors.New("state conflict")

// ErrInternal indicates an unexpected failure in the ledger or its storage.
var ErrInternal = errors.New("internal error")

// Validation failures. Rejected before anything is written.
var (
	ErrUnbalanced      = fmt.Errorf("%w: debits do not equal credits", ErrValidation)
	ErrInvalidAccount  = fmt.Errorf("%w: invalid account", ErrValidation)
	ErrInvalidCurrency = fmt.Errorf("%w: invalid currency", ErrValidation)
	ErrPeriodNotFound  = fmt.Errorf("%w: no accounting period covers the entry date", ErrValidation)
)

// State conflicts. The caller may retry once the state has been corrected.
var (
	ErrPeriodClosed        = fmt.Errorf("%w: accounting period is not open for postings", ErrConflict)
	ErrDuplicateReference  = fmt.Errorf("%w: journal entry reference already used", ErrDuplicate)
	ErrAlreadyClosing      = fmt.Errorf("%w: accounting period is already being closed", ErrConflict)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid accounting period transition", ErrConflict)
	ErrPeriodAlreadyClosed = fmt.Errorf("%w: accounting period is already closed", ErrInvalidTransition)
)

// ErrInsufficientFunds is returned when a funding account cannot cover a posting.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNotBalanced is the integrity fault raised when the trial balance does not
// net to zero. It is never retried automatically.
var ErrNotBalanced = errors.New("ledger integrity fault: trial balance is out of balance")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}
