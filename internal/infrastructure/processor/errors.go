package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
)

// CodeResourceMissing is the code Stripe reports for an object id it cannot find.
const CodeResourceMissing = string(stripe.ErrorCodeResourceMissing)

// ProcessorError is a failure reported by the card processor, or a transport
// failure on the way to it (StatusCode 0).
type ProcessorError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// IsRetryable reports whether the same request may succeed on a later attempt.
func (e *ProcessorError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

func IsProcessorError(err error) (*ProcessorError, bool) {
	var procErr *ProcessorError
	ok := errors.As(err, &procErr)
	return procErr, ok
}

// fromStripe normalizes errors returned by stripe-go. Context errors pass
// through untouched so callers can tell a cancelled request apart.
func fromStripe(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := string(stripeErr.Code)
		if code == "" {
			code = string(stripeErr.Type)
		}
		return &ProcessorError{
			Code:       code,
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
		}
	}

	return &ProcessorError{
		Code:    "network_error",
		Message: err.Error(),
	}
}
