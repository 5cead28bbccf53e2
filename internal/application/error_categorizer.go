package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if domain.IsValidationError(err) {
		return CategoryClientError
	}

	if errors.Is(err, domain.ErrInvalidTransition) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrDonationNotFound) ||
		errors.Is(err, domain.ErrCampaignNotFound) ||
		errors.Is(err, domain.ErrInvalidSignature) ||
		errors.Is(err, domain.ErrInvalidPayload) {
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeValidation, ErrCodeInvalidSignature, ErrCodeInvalidPayload,
			ErrCodeNotFound, ErrCodeUnauthorized:
			return CategoryClientError
		case ErrCodeInvalidState:
			return CategoryBusinessRule
		case ErrCodeInternal:
			return CategoryInfrastructure
		case ErrCodeTimeout:
			return CategoryTransient
		}
	}

	// Processor errors know whether they are worth retrying.
	var retryable domain.Retryable
	if errors.As(err, &retryable) {
		if retryable.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case domain.IsValidationError(err),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, domain.ErrDonationNotFound),
		errors.Is(err, domain.ErrCampaignNotFound):
		return http.StatusNotFound

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	switch {
	case domain.IsValidationError(err):
		return ErrCodeValidation
	case errors.Is(err, domain.ErrInvalidSignature):
		return ErrCodeInvalidSignature
	case errors.Is(err, domain.ErrInvalidPayload):
		return ErrCodeInvalidPayload
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrCodeInvalidState
	case errors.Is(err, domain.ErrDonationNotFound),
		errors.Is(err, domain.ErrCampaignNotFound):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}

// ToMessage is the client-facing text for err. Internal details never leak.
func ToMessage(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Message
	}
	switch ToErrorCode(err) {
	case ErrCodeValidation, ErrCodeNotFound:
		return err.Error()
	case ErrCodeInvalidSignature:
		return "Invalid signature"
	case ErrCodeInvalidPayload:
		return "Invalid payload"
	case ErrCodeInvalidState:
		return "Invalid state"
	case ErrCodeTimeout:
		return "Request timed out"
	}
	return "An internal error occurred"
}
