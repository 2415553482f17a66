package shared

import "errors"

// Error codes shared across bounded contexts
const (
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeValidation              = "VALIDATION_ERROR"
	CodeOverpayment             = "OVERPAYMENT"
	CodeForbidden               = "FORBIDDEN"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInvalidState            = "INVALID_STATE"
	CodeConcurrentModification  = "CONCURRENT_MODIFICATION"
	CodeInstallmentsHavePayment = "INSTALLMENTS_HAVE_PAYMENTS"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so sentinel comparisons
// survive custom messages and fmt.Errorf wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error for malformed or out-of-range input
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewOverpaymentError creates an error for an amount exceeding the remaining balance
func NewOverpaymentError(message string) *DomainError {
	return NewDomainError(CodeOverpayment, message)
}

// NewPermissionError creates an access-denied error
func NewPermissionError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// NewNotFoundError creates an error for a missing resource
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// Common domain errors
var (
	ErrNotFound                 = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists            = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation               = NewDomainError(CodeValidation, "Invalid input provided")
	ErrOverpayment              = NewDomainError(CodeOverpayment, "Amount exceeds the remaining balance")
	ErrForbidden                = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrUnauthorized             = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState             = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrentModification   = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrInstallmentsHavePayments = NewDomainError(CodeInstallmentsHavePayment, "Installments cannot be regenerated for a sale with payments")
)

// IsValidationError reports whether err is a validation error. Overpayment is a
// specialised validation error and is included.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrOverpayment)
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionError reports whether err is an access-denied error
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// AsDomainError unwraps err to a DomainError
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
