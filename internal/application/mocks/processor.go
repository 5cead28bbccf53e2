package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
)

// Processor is a scripted PaymentProcessor that counts its calls.
type Processor struct {
	mu    sync.Mutex
	calls map[string]int

	Delay          time.Duration
	CreateIntentFn func(ctx context.Context, req application.IntentRequest) (*application.Intent, error)
	GetIntentFn    func(ctx context.Context, intentID string) (*application.Intent, error)
	CancelIntentFn func(ctx context.Context, intentID string) (*application.Intent, error)
}

func (m *Processor) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *Processor) GetCalls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Processor) CreateIntent(ctx context.Context, req application.IntentRequest) (*application.Intent, error) {
	m.inc("CreateIntent")
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.CreateIntentFn != nil {
		return m.CreateIntentFn(ctx, req)
	}
	id := "pi_" + req.DonationID
	return &application.Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_test", id),
		Status:       "requires_payment_method",
	}, nil
}

func (m *Processor) GetIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	m.inc("GetIntent")
	if m.GetIntentFn != nil {
		return m.GetIntentFn(ctx, intentID)
	}
	return &application.Intent{ID: intentID, Status: "processing"}, nil
}

func (m *Processor) CancelIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	m.inc("CancelIntent")
	if m.CancelIntentFn != nil {
		return m.CancelIntentFn(ctx, intentID)
	}
	return &application.Intent{ID: intentID, Status: "canceled"}, nil
}

// Verifier returns a fixed event or error.
type Verifier struct {
	Event *application.PaymentEvent
	Err   error
}

func (v *Verifier) ParseEvent(_ []byte, _ string) (*application.PaymentEvent, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	return v.Event, nil
}
