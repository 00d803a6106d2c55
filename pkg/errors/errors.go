package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrMissingLoanRef      = errors.New("transaction requires a loan reference")
	ErrUnknownStatus       = errors.New("unknown loan status")
	ErrUnknownFrequency    = errors.New("unknown payment frequency")
	ErrDuplicateUserCode   = errors.New("user code already exists")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeDuplicateUserCode   = "DUPLICATE_USER_CODE"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// IsNotFound reports whether err is one of the missing-entity errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsInvalidRequest reports whether err describes a malformed or
// unsatisfiable request.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrMissingLoanRef) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrUnknownFrequency)
}

// IsConflict reports whether err describes a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateUserCode)
}

// Wrap common errors with business context

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapUserNotFound(userID string) *BusinessError {
	return NewBusinessError(
		ErrCodeUserNotFound,
		fmt.Sprintf("user with ID %s not found", userID),
		ErrUserNotFound,
	)
}

func WrapTransactionNotFound(txID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("transaction with ID %s not found", txID),
		ErrTransactionNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapMissingLoanRef() *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		"loan ID is required to post a transaction",
		ErrMissingLoanRef,
	)
}

func WrapUnknownStatus(status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		fmt.Sprintf("unknown loan status %q", status),
		ErrUnknownStatus,
	)
}

func WrapUnknownFrequency(freq string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		fmt.Sprintf("unknown payment frequency %q", freq),
		ErrUnknownFrequency,
	)
}

func WrapDuplicateUserCode(code string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateUserCode,
		fmt.Sprintf("user code %s already exists", code),
		ErrDuplicateUserCode,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
