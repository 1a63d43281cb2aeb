package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"fundhub/internal/chain"
	"fundhub/internal/domain"
	"fundhub/internal/domain/jsoncfg"
	"fundhub/internal/feed"
	"fundhub/internal/infra"
	"fundhub/internal/middleware"
	"fundhub/internal/service"
)

// MilestoneService is what the milestone endpoints need from the service layer.
type MilestoneService interface {
	Get(ctx context.Context, id string, actor domain.Actor) (service.MilestoneView, error)
	Transition(ctx context.Context, id string, actor domain.Actor, trigger domain.Trigger, txHash string) (service.TransitionResult, error)
	Withdraw(ctx context.Context, id string, actor domain.Actor) (service.TransitionResult, error)
	HandleChainEvent(ctx context.Context, id string, ev chain.Event) (service.TransitionResult, error)
	HandleConfirmation(ctx context.Context, id, txHash string, count int) (service.TransitionResult, error)
}

// DelegationService is what the delegation endpoints need from the service layer.
type DelegationService interface {
	Sources(ctx context.Context, actor domain.Actor, campaignID string) ([]domain.DelegationSource, error)
	Preview(ctx context.Context, actor domain.Actor, req service.DelegationRequest) (service.DelegationPreview, error)
	Submit(ctx context.Context, actor domain.Actor, req service.DelegationRequest) (service.DelegationReceipt, error)
	CommitWindow(ctx context.Context, donationID string) (service.CommitWindowView, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Milestones  MilestoneService
	Delegations DelegationService
	Whitelist   *jsoncfg.Whitelist
	Feed        *feed.Hub
	DB          Pinger
	Logger      infra.Logger

	// FeedOrigins are the host patterns allowed to open the live feed.
	FeedOrigins []string
}

// FeedOriginPatterns turns CORS origins into websocket host patterns.
func FeedOriginPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			out = append(out, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, errorBody{Error: kind, Message: msg})
}

// fail maps a service error onto the HTTP response.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := statusFor(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		if code == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	a.error(w, code, kind, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrUnknownTransaction):
		return http.StatusConflict, "unknown_transaction"
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrNoEligibleDonations),
		errors.Is(err, domain.ErrTokenMismatch):
		return http.StatusUnprocessableEntity, "unprocessable"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidConfirmations),
		errors.Is(err, domain.ErrInvalidRecord):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrChainFailure):
		return http.StatusBadGateway, "chain_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

const maxBodyBytes = 64 << 10

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func actor(r *http.Request) domain.Actor {
	return middleware.ActorFromContext(r.Context())
}
