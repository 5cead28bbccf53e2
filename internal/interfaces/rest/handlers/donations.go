package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest/middleware"
	"github.com/oapi-codegen/runtime"
)

const maxDonationBody = 16 << 10

func (h *Handlers) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req rest.DonationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDonationBody))
	if err := dec.Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError(fmt.Errorf("invalid request body: %w", err)), h.logger)
		return
	}

	var userID, userName string
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		userID, userName = p.UserID, p.Name
	}

	receipt, err := h.donationService.Donate(r.Context(), req.ToCommand(userID, userName))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusCreated, rest.ToDonationReceipt(receipt), h.logger)
}

func (h *Handlers) CancelDonation(w http.ResponseWriter, r *http.Request) {
	var donationID string
	err := runtime.BindStyledParameterWithOptions("simple", "donationID", r.PathValue("donationID"), &donationID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		rest.WriteError(w, application.NewValidationError(err), h.logger)
		return
	}

	p, _ := middleware.PrincipalFrom(r.Context())

	donation, err := h.donationService.Cancel(r.Context(), services.CancelCommand{
		DonationID: donationID,
		UserID:     p.UserID,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToDonation(donation), h.logger)
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	entries, err := h.queryService.History(r.Context(), p.UserID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToHistory(entries), h.logger)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queryService.Stats(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToStats(stats), h.logger)
}

type message struct {
	Message string `json:"message"`
}

func (h *Handlers) CheckoutSucceeded(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "Thank you for your donation! Your generosity makes a difference.")
}

func (h *Handlers) CheckoutCancelled(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "Donation was cancelled. You can try again anytime.")
}

func writeMessage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(message{Message: text})
}
