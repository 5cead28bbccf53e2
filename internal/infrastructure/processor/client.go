package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/config"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// StripeClient talks to the Stripe PaymentIntents API.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(cfg config.StripeConfig, logger *slog.Logger) *StripeClient {
	httpClient := &http.Client{Timeout: cfg.ConnTimeout}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     &leveledLogger{logger: logger.With("component", "stripe")},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	})

	return &StripeClient{api: api}
}

// CreateIntent opens a payment intent for a donation. The donation id is the
// idempotency key so a retried request never opens a second intent.
func (c *StripeClient) CreateIntent(ctx context.Context, req application.IntentRequest) (*application.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.DonationID)
	params.AddMetadata("donation_id", req.DonationID)
	params.AddMetadata("donor_name", req.DonorName)
	params.AddMetadata("donation_type", string(req.Category))

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", fromStripe(err))
	}
	return toIntent(pi), nil
}

func (c *StripeClient) GetIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", intentID, fromStripe(err))
	}
	return toIntent(pi), nil
}

func (c *StripeClient) CancelIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Cancel(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel payment intent %s: %w", intentID, fromStripe(err))
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *application.Intent {
	return &application.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

// leveledLogger routes stripe-go's internal logging through slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
