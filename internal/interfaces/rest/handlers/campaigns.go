package handlers

import (
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
	"github.com/oapi-codegen/runtime"
)

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.queryService.ActiveCampaigns(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToCampaigns(campaigns), h.logger)
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	var campaignID string
	err := runtime.BindStyledParameterWithOptions("simple", "campaignID", r.PathValue("campaignID"), &campaignID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		rest.WriteError(w, application.NewValidationError(err), h.logger)
		return
	}

	campaign, err := h.queryService.Campaign(r.Context(), campaignID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteData(w, http.StatusOK, rest.ToCampaign(campaign), h.logger)
}
