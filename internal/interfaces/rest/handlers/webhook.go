package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 << 10

// StripeWebhook hands the untouched body to the reconciler. Any 2xx tells
// Stripe to stop redelivering, so only storage failures return 5xx.
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		rest.WriteError(w, application.NewInvalidPayloadError(fmt.Errorf("read body: %w", err)), h.logger)
		return
	}

	if err := h.reconcileService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, map[string]bool{"received": true}, h.logger)
}
