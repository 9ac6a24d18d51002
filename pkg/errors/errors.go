package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRentalNotFound = errors.New("rental not found")
	ErrSpaceNotFound  = errors.New("space not found")
	ErrForbidden      = errors.New("forbidden")

	ErrAmountNotPositive    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrAmountExceedsBalance = fmt.Errorf("%w: amount exceeds remaining balance", ErrValidation)
	ErrSpaceNotAvailable    = fmt.Errorf("%w: space is not available", ErrValidation)
	ErrRentalAlreadyEnded   = fmt.Errorf("%w: rental already ended", ErrValidation)
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
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeRentalNotFound = "RENTAL_NOT_FOUND"
	ErrCodeSpaceNotFound  = "SPACE_NOT_FOUND"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeDatabaseError  = "DATABASE_ERROR"
	ErrCodeCacheError     = "CACHE_ERROR"
)

// NewValidationError builds a user-facing validation failure. The message is
// surfaced to the caller verbatim.
func NewValidationError(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

// NewInvalidInput reports calculator misuse.
func NewInvalidInput(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidInput, message, ErrInvalidInput)
}

func WrapAmountNotPositive() *BusinessError {
	return NewBusinessError(ErrCodeValidation, "amount must be positive", ErrAmountNotPositive)
}

func WrapAmountExceedsBalance() *BusinessError {
	return NewBusinessError(ErrCodeValidation, "amount exceeds remaining balance", ErrAmountExceedsBalance)
}

func WrapSpaceNotAvailable(spaceCode string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf("Space %s is not available", spaceCode),
		ErrSpaceNotAvailable,
	)
}

func WrapRentalAlreadyEnded(rentalCode string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf("Rental %s has already ended", rentalCode),
		ErrRentalAlreadyEnded,
	)
}

func WrapRentalNotFound(rentalID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRentalNotFound,
		fmt.Sprintf("Rental with ID %s not found", rentalID),
		ErrRentalNotFound,
	)
}

func WrapSpaceNotFound(spaceID string) *BusinessError {
	return NewBusinessError(
		ErrCodeSpaceNotFound,
		fmt.Sprintf("Space with ID %s not found", spaceID),
		ErrSpaceNotFound,
	)
}

func WrapForbidden(role, action string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("Role %q is not allowed to %s", role, action),
		ErrForbidden,
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
		"Cache operation failed",
		err,
	)
}

// IsValidation reports whether err is a user-facing validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrRentalNotFound) || errors.Is(err, ErrSpaceNotFound)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
