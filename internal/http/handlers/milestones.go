package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fundhub/internal/chain"
	"fundhub/internal/domain"
	"fundhub/internal/feed"
)

type transitionRequest struct {
	Trigger domain.Trigger `json:"trigger"`
	TxHash  string         `json:"txHash,omitempty"`
}

type confirmationRequest struct {
	TxHash        string `json:"txHash"`
	Confirmations *int   `json:"confirmations"`
}

func (a *App) MilestonesGet(w http.ResponseWriter, r *http.Request) {
	view, err := a.Milestones.Get(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, view)
}

// MilestonesTransition fires an actor trigger. A txHash marks the change as
// submitted by the wallet and pending until mined.
func (a *App) MilestonesTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Trigger == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "trigger required")
		return
	}
	res, err := a.Milestones.Transition(r.Context(), chi.URLParam(r, "id"), actor(r), req.Trigger, strings.TrimSpace(req.TxHash))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	code := http.StatusOK
	if res.Pending != nil {
		code = http.StatusAccepted
	}
	a.json(w, code, res)
}

func (a *App) MilestonesWithdraw(w http.ResponseWriter, r *http.Request) {
	res, err := a.Milestones.Withdraw(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, res)
}

// ChainEvent receives transaction lifecycle events from the chain gateway.
func (a *App) ChainEvent(w http.ResponseWriter, r *http.Request) {
	var ev chain.Event
	if err := decode(r, &ev); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	res, err := a.Milestones.HandleChainEvent(r.Context(), chi.URLParam(r, "id"), ev)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

// ChainConfirmation records the depth of one transaction.
func (a *App) ChainConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if err := decode(r, &req); err != nil || req.Confirmations == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "confirmations required")
		return
	}
	txHash := strings.TrimSpace(req.TxHash)
	if txHash == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "txHash required")
		return
	}
	res, err := a.Milestones.HandleConfirmation(r.Context(), chi.URLParam(r, "id"), txHash, *req.Confirmations)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

// MilestonesFeed streams live snapshots of one milestone over a websocket.
// The first message is the current snapshot as the caller sees it.
func (a *App) MilestonesFeed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := a.Milestones.Get(r.Context(), id, actor(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := a.Feed.Subscribe(id)
	if err != nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	snapshot := view.Milestone
	feed.Serve(w, r, sub, feed.ServeOptions{
		Initial: &feed.Message{
			MilestoneID:    id,
			Snapshot:       &snapshot,
			AllowedActions: view.AllowedActions,
		},
		OriginPatterns: a.FeedOrigins,
		Logger:         a.Logger,
	})
}
