package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/config"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateIntent(ctx context.Context, req application.IntentRequest) (*application.Intent, error) {
	args := m.Called(ctx, req)
	intent, _ := args.Get(0).(*application.Intent)
	return intent, args.Error(1)
}

func (m *mockProcessor) GetIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	args := m.Called(ctx, intentID)
	intent, _ := args.Get(0).(*application.Intent)
	return intent, args.Error(1)
}

func (m *mockProcessor) CancelIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	args := m.Called(ctx, intentID)
	intent, _ := args.Get(0).(*application.Intent)
	return intent, args.Error(1)
}

var noDelay = config.RetryConfig{BaseDelay: 0, MaxRetries: 3}

func TestRetryProcessor_CreateIntent_Success(t *testing.T) {
	inner := &mockProcessor{}
	req := application.IntentRequest{DonationID: "d-1", AmountCents: 5000, Currency: "USD"}
	want := &application.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}
	inner.On("CreateIntent", mock.Anything, req).Return(want, nil).Once()

	got, err := processor.NewRetryProcessor(inner, noDelay).CreateIntent(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	inner.AssertExpectations(t)
}

func TestRetryProcessor_RetriesOn5xx(t *testing.T) {
	inner := &mockProcessor{}
	inner.On("GetIntent", mock.Anything, "pi_1").
		Return(nil, &processor.ProcessorError{Code: "api_error", StatusCode: 500}).
		Twice()
	inner.On("GetIntent", mock.Anything, "pi_1").
		Return(&application.Intent{ID: "pi_1", Status: "succeeded"}, nil).
		Once()

	got, err := processor.NewRetryProcessor(inner, noDelay).GetIntent(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.Status)
	inner.AssertNumberOfCalls(t, "GetIntent", 3)
}

func TestRetryProcessor_NoRetryOn4xx(t *testing.T) {
	inner := &mockProcessor{}
	declined := &processor.ProcessorError{Code: "card_declined", StatusCode: 402}
	inner.On("CancelIntent", mock.Anything, "pi_1").Return(nil, declined).Once()

	_, err := processor.NewRetryProcessor(inner, noDelay).CancelIntent(context.Background(), "pi_1")

	require.ErrorIs(t, err, declined)
	inner.AssertNumberOfCalls(t, "CancelIntent", 1)
}

func TestRetryProcessor_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &mockProcessor{}
	unavailable := &processor.ProcessorError{Code: "network_error"}
	inner.On("GetIntent", mock.Anything, "pi_1").Return(nil, unavailable)

	_, err := processor.NewRetryProcessor(inner, noDelay).GetIntent(context.Background(), "pi_1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
	assert.True(t, errors.Is(err, unavailable))
	inner.AssertNumberOfCalls(t, "GetIntent", 3)
}

func TestRetryProcessor_StopsOnCancelledContext(t *testing.T) {
	inner := &mockProcessor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.NewRetryProcessor(inner, noDelay).GetIntent(ctx, "pi_1")

	require.ErrorIs(t, err, context.Canceled)
	inner.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
}
