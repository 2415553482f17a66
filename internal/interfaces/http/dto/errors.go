package dto

import (
	"net/http"

	"github.com/cobranzas/backend/internal/domain/shared"
)

// Domain error codes are rendered unchanged so clients see the same code the
// service layer produced.
const (
	ErrCodeNotFound                 = shared.CodeNotFound
	ErrCodeAlreadyExists            = shared.CodeAlreadyExists
	ErrCodeValidation               = shared.CodeValidation
	ErrCodeOverpayment              = shared.CodeOverpayment
	ErrCodeForbidden                = shared.CodeForbidden
	ErrCodeUnauthorized             = shared.CodeUnauthorized
	ErrCodeInvalidState             = shared.CodeInvalidState
	ErrCodeConcurrentModification   = shared.CodeConcurrentModification
	ErrCodeInstallmentsHavePayments = shared.CodeInstallmentsHavePayment
)

// Transport error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	// ErrCodeTokenRevoked is used when the auth token was revoked on logout
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// An overpayment is a validation failure on a well-formed request
	ErrCodeOverpayment: http.StatusUnprocessableEntity,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:                 http.StatusNotFound,
	ErrCodeAlreadyExists:            http.StatusConflict,
	ErrCodeConcurrentModification:   http.StatusConflict,
	ErrCodeInstallmentsHavePayments: http.StatusConflict,
	ErrCodeInvalidState:             http.StatusConflict,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
