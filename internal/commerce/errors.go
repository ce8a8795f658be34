package commerce

import (
	"fmt"
	"net/http"

	"github.com/omnishop/checkout-service/internal/model"
)

type ErrorCode string

const (
	CodeCartValidationFailed ErrorCode = "CART_VALIDATION_FAILED"
	CodeAuthRequired         ErrorCode = "AUTH_REQUIRED"
	CodeValidationError      ErrorCode = "VALIDATION_ERROR"
)

// APIError is a non-2xx response from the commerce backend. For the
// CART_VALIDATION_FAILED code the backend bundles a fresh reconciliation in
// the error body; ValidationData carries it to the caller.
type APIError struct {
	StatusCode     int
	Code           ErrorCode
	Message        string
	ValidationData *model.CartReconciliation
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("commerce api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("commerce api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) CartValidationFailed() bool {
	return e.Code == CodeCartValidationFailed
}

func (e *APIError) AuthRequired() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == CodeAuthRequired
}

// Retryable reports whether the caller may usefully retry the same request.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}
