package application

import (
	"errors"
	"fmt"
	"net/http"
)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewValidationError keeps the underlying message because it is what the donor needs to fix.
func NewValidationError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewExternalServiceError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeExternalService,
		Message:    "Payment processor is unavailable. Please try again later.",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInvalidSignatureError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidSignature,
		Message:    "Invalid signature",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidPayloadError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidPayload,
		Message:    "Invalid payload",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    err.Error(),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Invalid state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
