package e2e

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74/webhook"
)

// TestClient wraps HTTP calls to a running donations service
type TestClient struct {
	baseURL       string
	webhookSecret string
	httpClient    *http.Client
}

func NewTestClient(baseURL, webhookSecret string) *TestClient {
	return &TestClient{
		baseURL:       baseURL,
		webhookSecret: webhookSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *rest.ErrorDetail `json:"error"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: [%s] %s", e.StatusCode, e.Code, e.Message)
}

func (c *TestClient) do(t *testing.T, method, path string, body []byte, headers map[string]string, out any) error {
	t.Helper()

	httpReq, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var env envelope
	_ = json.Unmarshal(bodyBytes, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return nil
}

// Donate calls POST /api/v1/donations
func (c *TestClient) Donate(t *testing.T, req map[string]any) (*rest.DonationReceipt, error) {
	body, err := json.Marshal(req)
	require.NoError(t, err)

	var receipt rest.DonationReceipt
	if err := c.do(t, http.MethodPost, "/api/v1/donations", body, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *TestClient) Campaigns(t *testing.T) ([]rest.Campaign, error) {
	var campaigns []rest.Campaign
	err := c.do(t, http.MethodGet, "/api/v1/donations/campaigns", nil, nil, &campaigns)
	return campaigns, err
}

func (c *TestClient) Stats(t *testing.T) (*rest.Stats, error) {
	var stats rest.Stats
	if err := c.do(t, http.MethodGet, "/api/v1/donations/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SendEvent posts a Stripe event signed with the shared endpoint secret.
func (c *TestClient) SendEvent(t *testing.T, eventID, eventType, intentID string) error {
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","type":%q,"data":{"object":{"id":%q,"object":"payment_intent"}}}`,
		eventID, eventType, intentID,
	))
	now := time.Now()
	sig := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(webhook.ComputeSignature(now, payload, c.webhookSecret)))
	return c.do(t, http.MethodPost, "/api/v1/donations/webhook/stripe", payload, map[string]string{"Stripe-Signature": sig}, nil)
}

// SendForgedEvent posts an event with a signature that cannot verify.
func (c *TestClient) SendForgedEvent(t *testing.T) error {
	payload := []byte(`{"id":"evt_forged","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_forged"}}}`)
	return c.do(t, http.MethodPost, "/api/v1/donations/webhook/stripe", payload,
		map[string]string{"Stripe-Signature": fmt.Sprintf("t=%d,v1=%s", time.Now().Unix(), "00")}, nil)
}
