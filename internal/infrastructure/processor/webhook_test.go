package processor_test

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74/webhook"
)

const endpointSecret = "whsec_test_secret"

func sign(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func intentEvent(eventID, eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": %q,
		"api_version": "2020-08-27",
		"data": {"object": {"id": %q, "object": "payment_intent", "amount": 2500}}
	}`, eventID, eventType, intentID))
}

func TestStripeWebhookVerifier_ParseEvent(t *testing.T) {
	v := processor.NewStripeWebhookVerifier(endpointSecret, 5*time.Minute)

	tests := []struct {
		eventType string
		outcome   domain.PaymentOutcome
	}{
		{processor.EventIntentSucceeded, domain.OutcomeSucceeded},
		{processor.EventIntentFailed, domain.OutcomeFailed},
		{processor.EventIntentCanceled, domain.OutcomeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			payload := intentEvent("evt_1", tt.eventType, "pi_42")

			event, err := v.ParseEvent(payload, sign(payload, endpointSecret, time.Now()))

			require.NoError(t, err)
			assert.Equal(t, "evt_1", event.ID)
			assert.Equal(t, tt.eventType, event.Type)
			assert.Equal(t, "pi_42", event.IntentID)
			assert.Equal(t, tt.outcome, event.Outcome)
		})
	}
}

func TestStripeWebhookVerifier_IgnoredEventType(t *testing.T) {
	v := processor.NewStripeWebhookVerifier(endpointSecret, 5*time.Minute)
	payload := intentEvent("evt_2", "charge.refunded", "ch_1")

	event, err := v.ParseEvent(payload, sign(payload, endpointSecret, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Empty(t, event.Outcome)
	assert.Empty(t, event.IntentID)
}

func TestStripeWebhookVerifier_RejectsBadSignatures(t *testing.T) {
	v := processor.NewStripeWebhookVerifier(endpointSecret, 5*time.Minute)
	payload := intentEvent("evt_3", processor.EventIntentSucceeded, "pi_1")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "garbage"},
		{"wrong secret", sign(payload, "whsec_other", time.Now())},
		{"stale timestamp", sign(payload, endpointSecret, time.Now().Add(-time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ParseEvent(payload, tt.header)
			assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		})
	}
}

func TestStripeWebhookVerifier_TamperedPayload(t *testing.T) {
	v := processor.NewStripeWebhookVerifier(endpointSecret, 5*time.Minute)
	payload := intentEvent("evt_4", processor.EventIntentSucceeded, "pi_1")
	header := sign(payload, endpointSecret, time.Now())

	_, err := v.ParseEvent(intentEvent("evt_4", processor.EventIntentSucceeded, "pi_2"), header)

	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestStripeWebhookVerifier_MalformedJSON(t *testing.T) {
	v := processor.NewStripeWebhookVerifier(endpointSecret, 5*time.Minute)
	payload := []byte(`{"id": "evt_5", "type": `)

	_, err := v.ParseEvent(payload, sign(payload, endpointSecret, time.Now()))

	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
