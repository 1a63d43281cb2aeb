package handlers

import "net/http"

// WhitelistGet serves the token and account whitelists the frontend renders.
func (a *App) WhitelistGet(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Whitelist.Document())
}

func (a *App) TokensList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Whitelist.Tokens()})
}
