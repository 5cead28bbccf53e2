package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest/middleware"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	donationService  *services.DonationService
	reconcileService *services.ReconcileService
	queryService     *services.QueryService
	db               Pinger
	logger           *slog.Logger
}

func NewHandlers(
	donationService *services.DonationService,
	reconcileService *services.ReconcileService,
	queryService *services.QueryService,
	db Pinger,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		donationService:  donationService,
		reconcileService: reconcileService,
		queryService:     queryService,
		db:               db,
		logger:           logger,
	}
}

// RegisterRoutes mounts every endpoint on mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.Handle("POST /api/v1/donations", auth.OptionalUser(http.HandlerFunc(h.CreateDonation)))
	mux.HandleFunc("POST /api/v1/donations/webhook/stripe", h.StripeWebhook)
	mux.Handle("GET /api/v1/donations/history", auth.RequireUser(http.HandlerFunc(h.History)))
	mux.Handle("POST /api/v1/donations/{donationID}/cancel", auth.RequireUser(http.HandlerFunc(h.CancelDonation)))

	mux.HandleFunc("GET /api/v1/donations/campaigns", h.ListCampaigns)
	mux.HandleFunc("GET /api/v1/donations/campaigns/{campaignID}", h.GetCampaign)
	mux.HandleFunc("GET /api/v1/donations/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/donations/success", h.CheckoutSucceeded)
	mux.HandleFunc("GET /api/v1/donations/cancel", h.CheckoutCancelled)

	mux.HandleFunc("GET /healthz", h.Health)
}
