package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/stripe/stripe-go/v74/webhook"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

var outcomes = map[string]domain.PaymentOutcome{
	EventIntentSucceeded: domain.OutcomeSucceeded,
	EventIntentFailed:    domain.OutcomeFailed,
	EventIntentCanceled:  domain.OutcomeCanceled,
}

// StripeWebhookVerifier checks the Stripe-Signature header against the
// endpoint secret and decodes payment intent events.
type StripeWebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeWebhookVerifier(secret string, tolerance time.Duration) *StripeWebhookVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &StripeWebhookVerifier{secret: secret, tolerance: tolerance}
}

func (v *StripeWebhookVerifier) ParseEvent(payload []byte, signatureHeader string) (*application.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	parsed := &application.PaymentEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	outcome, ok := outcomes[parsed.Type]
	if !ok {
		return parsed, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data object", domain.ErrInvalidPayload, event.ID)
	}

	var intent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	parsed.IntentID = intent.ID
	parsed.Outcome = outcome
	return parsed, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
