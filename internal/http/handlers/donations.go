package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DonationsCommitWindow reports whether a delegated donation can still be
// rejected.
func (a *App) DonationsCommitWindow(w http.ResponseWriter, r *http.Request) {
	view, err := a.Delegations.CommitWindow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, view)
}
