package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewOverpaymentError("Installment 3 paid amount 1001 would exceed scheduled amount 1000")
	wrapped := fmt.Errorf("failed to record collection: %w", err)

	assert.True(t, errors.Is(wrapped, ErrOverpayment))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "Installment 3 paid amount 1001 would exceed scheduled amount 1000", err.Error())

	var domainErr *DomainError
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, CodeOverpayment, domainErr.Code)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
		permission bool
	}{
		{"validation", NewValidationError("bad"), true, false, false},
		{"overpayment is validation", NewOverpaymentError("too much"), true, false, false},
		{"not found", NewNotFoundError("missing"), false, true, false},
		{"permission", NewPermissionError("denied"), false, false, true},
		{"plain error", errors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.permission, IsPermissionError(tt.err))
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)

	f := DefaultFilter()
	f.Page = 3
	assert.Equal(t, 40, f.Offset())
}
