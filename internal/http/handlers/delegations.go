package handlers

import (
	"net/http"

	"fundhub/internal/service"
)

func (a *App) DelegationsSources(w http.ResponseWriter, r *http.Request) {
	items, err := a.Delegations.Sources(r.Context(), actor(r), r.URL.Query().Get("campaignId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DelegationsPreview returns the aggregated pool for the amount picker. A
// target above the available amount still returns the preview, with 422.
func (a *App) DelegationsPreview(w http.ResponseWriter, r *http.Request) {
	var req service.DelegationRequest
	if err := decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	preview, err := a.Delegations.Preview(r.Context(), actor(r), req)
	if err != nil {
		code, kind := statusFor(err)
		if code == http.StatusUnprocessableEntity && preview.Source.ID != "" {
			a.json(w, code, map[string]any{"error": kind, "message": err.Error(), "preview": preview})
			return
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, preview)
}

func (a *App) DelegationsSubmit(w http.ResponseWriter, r *http.Request) {
	var req service.DelegationRequest
	if err := decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	receipt, err := a.Delegations.Submit(r.Context(), actor(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, receipt)
}
