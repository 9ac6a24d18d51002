package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Classification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		isValidation bool
		isNotFound   bool
		isInvalid    bool
		message      string
	}{
		{
			name:         "amount not positive",
			err:          WrapAmountNotPositive(),
			isValidation: true,
			message:      "amount must be positive",
		},
		{
			name:         "amount exceeds balance",
			err:          WrapAmountExceedsBalance(),
			isValidation: true,
			message:      "amount exceeds remaining balance",
		},
		{
			name:         "space not available",
			err:          WrapSpaceNotAvailable("PS-0001"),
			isValidation: true,
			message:      "Space PS-0001 is not available",
		},
		{
			name:       "rental not found",
			err:        WrapRentalNotFound("abc"),
			isNotFound: true,
			message:    "Rental with ID abc not found",
		},
		{
			name:      "invalid input",
			err:       NewInvalidInput("monthly rate must not be negative"),
			isInvalid: true,
			message:   "monthly rate must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValidation, IsValidation(tt.err))
			assert.Equal(t, tt.isNotFound, IsNotFound(tt.err))
			assert.Equal(t, tt.isInvalid, IsInvalidInput(tt.err))

			var be *BusinessError
			assert.True(t, errors.As(tt.err, &be))
			assert.Equal(t, tt.message, be.Message)
		})
	}
}

func TestBusinessError_WrappedKeepsSentinel(t *testing.T) {
	err := fmt.Errorf("record payment: %w", WrapAmountExceedsBalance())

	assert.True(t, errors.Is(err, ErrAmountExceedsBalance))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrAmountNotPositive))
}

func TestBusinessError_ErrorString(t *testing.T) {
	err := NewBusinessError(ErrCodeDatabaseError, "database operation failed", errors.New("conn refused"))
	assert.Equal(t, "DATABASE_ERROR: database operation failed (conn refused)", err.Error())

	bare := NewBusinessError(ErrCodeForbidden, "nope", nil)
	assert.Equal(t, "FORBIDDEN: nope", bare.Error())
}
