package domain

import "errors"

// Validation errors. Anything wrapping one of these is rejected before persistence.
var (
	ErrInvalidAmount        = errors.New("donation amount must be greater than 0")
	ErrAmountExceedsLimit   = errors.New("donation amount exceeds the allowed maximum")
	ErrAmountPrecision      = errors.New("donation amount has more than 2 decimal places")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrInvalidCategory      = errors.New("invalid donation type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDonor         = errors.New("invalid donor details")
	ErrCampaignInactive     = errors.New("campaign is not accepting donations")
	ErrMessageTooLong       = errors.New("message is too long")
)

// State errors
var (
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Lookup errors
var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrCampaignNotFound = errors.New("campaign not found")
)

// Webhook errors
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Retryable interface for errors that can be retried
type Retryable interface {
	IsRetryable() bool
}

// IsValidationError reports whether err is one of the input validation errors.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrAmountExceedsLimit,
		ErrAmountPrecision,
		ErrMissingRequiredField,
		ErrInvalidCurrency,
		ErrInvalidCategory,
		ErrInvalidPaymentMethod,
		ErrInvalidDonor,
		ErrCampaignInactive,
		ErrMessageTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
