// Package service coordinates the domain core with persistence, the chain
// gateway and the live feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fundhub/internal/chain"
	"fundhub/internal/domain"
	"fundhub/internal/feed"
	"fundhub/internal/infra"
)

// Publisher receives every persisted milestone change.
type Publisher interface {
	Publish(msg feed.Message) int
}

// MilestoneView is a milestone as one actor sees it.
type MilestoneView struct {
	Milestone      domain.MilestoneRecord `json:"milestone"`
	AllowedActions []domain.Trigger       `json:"allowedActions"`
	Busy           bool                   `json:"busy"`
	FullyFunded    bool                   `json:"fullyFunded"`
	Headroom       string                 `json:"remainingHeadroom"`
	TxLink         string                 `json:"txLink,omitempty"`
}

// TransitionResult is returned after an actor or chain event changed a
// milestone.
type TransitionResult struct {
	View        MilestoneView             `json:"view"`
	Transitions []domain.Transition       `json:"transitions,omitempty"`
	Pending     *domain.PendingTransition `json:"pending,omitempty"`
}

// MilestoneService runs lifecycle transitions against stored milestones.
// Changes to one milestone are serialized; different milestones proceed in
// parallel.
type MilestoneService struct {
	repo  domain.MilestoneRepository
	chain chain.Client
	feed  Publisher
	links func(txHash string) string
	log   infra.Logger
	now   func() time.Time
	locks sync.Map
}

// MilestoneServiceOptions wires the service's collaborators.
type MilestoneServiceOptions struct {
	Repo   domain.MilestoneRepository
	Chain  chain.Client
	Feed   Publisher
	TxLink func(txHash string) string
	Logger infra.Logger
}

func NewMilestoneService(opts MilestoneServiceOptions) *MilestoneService {
	links := opts.TxLink
	if links == nil {
		links = func(string) string { return "" }
	}
	return &MilestoneService{
		repo:  opts.Repo,
		chain: opts.Chain,
		feed:  opts.Feed,
		links: links,
		log:   opts.Logger.With().Str("component", "milestone_service").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get loads a milestone with the actions actor may take on it.
func (s *MilestoneService) Get(ctx context.Context, id string, actor domain.Actor) (MilestoneView, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MilestoneView{}, err
	}
	return s.view(m, actor), nil
}

// Transition fires an actor-initiated trigger. With a tx hash the change is
// recorded as pending until the chain mines it; without one it is applied
// immediately.
func (s *MilestoneService) Transition(ctx context.Context, id string, actor domain.Actor, trigger domain.Trigger, txHash string) (TransitionResult, error) {
	if !actor.Authenticated() {
		return TransitionResult{}, domain.ErrUnauthorized
	}
	if trigger == domain.TriggerWithdraw && txHash == "" {
		return s.Withdraw(ctx, id, actor)
	}
	return s.mutate(ctx, id, actor, func(m *domain.Milestone) ([]domain.Transition, *domain.PendingTransition, error) {
		roles := domain.RolesFor(m, actor)
		if txHash != "" {
			p, err := domain.Begin(m, trigger, roles, txHash, s.now())
			return nil, p, err
		}
		tr, err := domain.Apply(m, trigger, roles)
		if err != nil {
			return nil, nil, err
		}
		return []domain.Transition{tr}, nil, nil
	})
}

// Withdraw asks the chain gateway to pay out a completed milestone and
// records the payout as pending.
func (s *MilestoneService) Withdraw(ctx context.Context, id string, actor domain.Actor) (TransitionResult, error) {
	return s.mutate(ctx, id, actor, func(m *domain.Milestone) ([]domain.Transition, *domain.PendingTransition, error) {
		roles := domain.RolesFor(m, actor)
		if err := domain.Authorize(m, domain.TriggerWithdraw, roles); err != nil {
			return nil, nil, err
		}
		req, err := chain.NewWithdrawRequest(m)
		if err != nil {
			return nil, nil, err
		}
		handle, err := s.chain.Withdraw(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		p, err := domain.Begin(m, domain.TriggerWithdraw, roles, handle.TxHash, s.now())
		return nil, p, err
	})
}

// HandleChainEvent applies a transaction lifecycle event reported for the
// milestone.
func (s *MilestoneService) HandleChainEvent(ctx context.Context, id string, ev chain.Event) (TransitionResult, error) {
	if err := ev.Validate(); err != nil {
		return TransitionResult{}, err
	}
	if ev.TxLink == "" {
		ev.TxLink = s.links(ev.TxHash)
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	return s.handleEvent(ctx, id, ev, true)
}

func (s *MilestoneService) handleEvent(ctx context.Context, id string, ev chain.Event, announce bool) (TransitionResult, error) {
	return s.mutate(ctx, id, domain.Actor{}, func(m *domain.Milestone) ([]domain.Transition, *domain.PendingTransition, error) {
		return applyChainEvent(m, ev)
	}, withEvent(ev, announce))
}

// HandleConfirmation records the confirmation depth the chain reports for
// txHash. Reports for a transaction that is neither pending nor the last one
// mined fail with ErrUnknownTransaction.
func (s *MilestoneService) HandleConfirmation(ctx context.Context, id, txHash string, count int) (TransitionResult, error) {
	return s.mutate(ctx, id, domain.Actor{}, func(m *domain.Milestone) ([]domain.Transition, *domain.PendingTransition, error) {
		trs, err := domain.OnConfirmation(m, txHash, count)
		return trs, nil, err
	})
}

// PollChain asks the gateway about every milestone still waiting on the
// chain and applies what it reports. It returns how many milestones changed.
func (s *MilestoneService) PollChain(ctx context.Context, limit int) (int, error) {
	items, err := s.repo.ListAwaitingChain(ctx, limit)
	if err != nil {
		return 0, err
	}
	changed := 0
	var errs []error
	for _, m := range items {
		txHash := m.LastTxHash()
		if p := m.Pending(); p != nil {
			txHash = p.TxHash
		}
		if txHash == "" {
			continue
		}
		st, err := s.chain.Status(ctx, txHash)
		if err != nil {
			errs = append(errs, fmt.Errorf("milestone %s: %w", m.ID, err))
			continue
		}
		ev, ok := chain.EventFromStatus(st, s.links(txHash), s.now())
		if !ok {
			continue
		}
		res, err := s.handleEvent(ctx, m.ID, ev, false)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownTransaction) {
				continue
			}
			errs = append(errs, fmt.Errorf("milestone %s: %w", m.ID, err))
			continue
		}
		if len(res.Transitions) > 0 {
			changed++
		}
	}
	return changed, errors.Join(errs...)
}

// applyChainEvent maps a chain event onto the lifecycle.
func applyChainEvent(m *domain.Milestone, ev chain.Event) ([]domain.Transition, *domain.PendingTransition, error) {
	p := m.Pending()
	pendingMatch := p != nil && equalHash(p.TxHash, ev.TxHash)
	lastMatch := equalHash(m.LastTxHash(), ev.TxHash)

	switch ev.Kind {
	case chain.EventCreated:
		if !pendingMatch && !lastMatch {
			return nil, nil, domain.ErrUnknownTransaction
		}
		return nil, nil, nil
	case chain.EventConfirmed:
		var applied []domain.Transition
		switch {
		case pendingMatch:
			tr, err := domain.OnMined(m, ev.TxHash)
			if err != nil {
				return nil, nil, err
			}
			applied = append(applied, tr)
		case !lastMatch:
			return nil, nil, domain.ErrUnknownTransaction
		}
		more, err := domain.OnConfirmation(m, ev.TxHash, ev.Confirmations)
		return append(applied, more...), nil, err
	case chain.EventFailed:
		if pendingMatch {
			return nil, nil, domain.Rollback(m, ev.TxHash)
		}
		if lastMatch && m.Status() == domain.MilestoneStatusPaying {
			tr, err := domain.FailWithdrawal(m)
			if err != nil {
				return nil, nil, err
			}
			return []domain.Transition{tr}, nil, nil
		}
		return nil, nil, domain.ErrUnknownTransaction
	case chain.EventCancelledByUser:
		if !pendingMatch {
			return nil, nil, domain.ErrUnknownTransaction
		}
		return nil, nil, domain.Rollback(m, ev.TxHash)
	}
	return nil, nil, fmt.Errorf("%w: unknown chain event %q", domain.ErrInvalidRecord, ev.Kind)
}

type publishPolicy struct {
	event    *chain.Event
	announce bool
}

type mutateOption func(*publishPolicy)

// withEvent attaches ev to the published message. Unless announce is set,
// the message is only sent when the milestone changed.
func withEvent(ev chain.Event, announce bool) mutateOption {
	return func(p *publishPolicy) {
		p.event = &ev
		p.announce = announce
	}
}

type mutation func(m *domain.Milestone) ([]domain.Transition, *domain.PendingTransition, error)

// mutate loads, changes, stores and publishes one milestone under its lock.
// Nothing is stored when fn fails.
func (s *MilestoneService) mutate(ctx context.Context, id string, actor domain.Actor, fn mutation, opts ...mutateOption) (TransitionResult, error) {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	before := m.Record("")
	transitions, pending, err := fn(m)
	if err != nil {
		var te *domain.TransitionError
		if errors.As(err, &te) {
			s.log.Info().Str("milestone_id", id).Str("trigger", string(te.Trigger)).Str("reason", te.Reason).Msg("transition rejected")
		}
		return TransitionResult{}, err
	}

	dirty := changed(before, m.Record(""))
	if dirty {
		if err := s.repo.Save(ctx, m); err != nil {
			return TransitionResult{}, fmt.Errorf("save milestone %s: %w", id, err)
		}
	}
	for _, tr := range transitions {
		s.log.Info().
			Str("milestone_id", id).
			Str("trigger", string(tr.Trigger)).
			Str("from", string(tr.From)).
			Str("to", string(tr.To)).
			Msg("milestone transition")
	}
	if pending != nil {
		s.log.Info().Str("milestone_id", id).Str("trigger", string(pending.Trigger)).Str("tx_hash", pending.TxHash).Msg("milestone transition pending")
	}

	policy := publishPolicy{announce: true}
	for _, opt := range opts {
		opt(&policy)
	}
	if s.feed != nil && (dirty || policy.announce) {
		rec := m.Record("")
		s.feed.Publish(feed.Message{
			MilestoneID: id,
			Snapshot:    &rec,
			Transitions: transitions,
			Event:       policy.event,
			At:          s.now(),
		})
	}
	return TransitionResult{View: s.view(m, actor), Transitions: transitions, Pending: pending}, nil
}

func (s *MilestoneService) view(m *domain.Milestone, actor domain.Actor) MilestoneView {
	allowed := domain.AllowedTriggers(m, domain.RolesFor(m, actor))
	if allowed == nil {
		allowed = []domain.Trigger{}
	}
	txHash := m.LastTxHash()
	if p := m.Pending(); p != nil {
		txHash = p.TxHash
	}
	return MilestoneView{
		Milestone:      m.Record(""),
		AllowedActions: allowed,
		Busy:           m.Busy(),
		FullyFunded:    m.FullyFunded(),
		Headroom:       m.RemainingHeadroom().String(),
		TxLink:         s.links(txHash),
	}
}

func (s *MilestoneService) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func equalHash(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

func changed(a, b domain.MilestoneRecord) bool {
	return a.Status != b.Status ||
		a.Mined != b.Mined ||
		a.Confirmations != b.Confirmations ||
		a.Deleted != b.Deleted ||
		a.LastTxHash != b.LastTxHash ||
		(a.PendingTransition == nil) != (b.PendingTransition == nil)
}
