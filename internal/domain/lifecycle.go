package domain

import (
	"strings"
	"time"
)

// Trigger names a lifecycle action.
type Trigger string

const (
	TriggerAccept            Trigger = "accept"
	TriggerReject            Trigger = "reject"
	TriggerRepropose         Trigger = "repropose"
	TriggerDelete            Trigger = "delete"
	TriggerRequestCompletion Trigger = "request_completion"
	TriggerRejectCompletion  Trigger = "reject_completion"
	TriggerApproveCompletion Trigger = "approve_completion"
	TriggerCancel            Trigger = "cancel"
	TriggerWithdraw          Trigger = "withdraw"
	TriggerConfirmWithdrawal Trigger = "confirm_withdrawal"
	TriggerFailWithdrawal    Trigger = "fail_withdrawal"
	TriggerConfirmCreation   Trigger = "confirm_creation"
)

// Triggers lists every trigger in the order actions are offered.
var Triggers = []Trigger{
	TriggerAccept,
	TriggerReject,
	TriggerRepropose,
	TriggerDelete,
	TriggerRequestCompletion,
	TriggerRejectCompletion,
	TriggerApproveCompletion,
	TriggerCancel,
	TriggerWithdraw,
	TriggerConfirmWithdrawal,
	TriggerFailWithdrawal,
	TriggerConfirmCreation,
}

// Role is the relationship of an actor to a milestone.
type Role string

const (
	RoleUser             Role = "user"
	RoleOwner            Role = "owner"
	RoleReviewer         Role = "reviewer"
	RoleCampaignReviewer Role = "campaign_reviewer"
	RoleRecipient        Role = "recipient"
	RoleChain            Role = "chain"
)

// RoleSet is the set of roles an actor holds for one milestone.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) any(roles []Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// RolesFor derives the actor's roles from the milestone's addresses.
func RolesFor(m *Milestone, actor Actor) RoleSet {
	roles := NewRoleSet()
	if !actor.Authenticated() {
		return roles
	}
	roles[RoleUser] = struct{}{}
	if actor.Is(m.OwnerAddress) {
		roles[RoleOwner] = struct{}{}
	}
	if actor.Is(m.ReviewerAddress) {
		roles[RoleReviewer] = struct{}{}
	}
	if actor.Is(m.CampaignReviewerAddress) {
		roles[RoleCampaignReviewer] = struct{}{}
	}
	if actor.Is(m.RecipientAddress) {
		roles[RoleRecipient] = struct{}{}
	}
	return roles
}

type transitionRule struct {
	from  []MilestoneStatus
	to    MilestoneStatus
	roles []Role
	guard func(*Milestone) string
}

var reviewers = []Role{RoleReviewer, RoleCampaignReviewer}

var transitionRules = map[Trigger]transitionRule{
	TriggerAccept: {
		from:  []MilestoneStatus{MilestoneStatusProposed},
		to:    MilestoneStatusInProgress,
		roles: reviewers,
	},
	TriggerReject: {
		from:  []MilestoneStatus{MilestoneStatusProposed},
		to:    MilestoneStatusRejected,
		roles: reviewers,
	},
	TriggerRepropose: {
		from:  []MilestoneStatus{MilestoneStatusRejected},
		to:    MilestoneStatusProposed,
		roles: []Role{RoleOwner},
	},
	// An empty target marks the milestone deleted.
	TriggerDelete: {
		from:  []MilestoneStatus{MilestoneStatusProposed},
		roles: []Role{RoleOwner},
	},
	TriggerRequestCompletion: {
		from:  []MilestoneStatus{MilestoneStatusInProgress},
		to:    MilestoneStatusNeedsReview,
		roles: []Role{RoleOwner, RoleRecipient},
	},
	TriggerRejectCompletion: {
		from:  []MilestoneStatus{MilestoneStatusNeedsReview},
		to:    MilestoneStatusInProgress,
		roles: reviewers,
	},
	TriggerApproveCompletion: {
		from:  []MilestoneStatus{MilestoneStatusNeedsReview},
		to:    MilestoneStatusCompleted,
		roles: reviewers,
	},
	TriggerCancel: {
		from:  []MilestoneStatus{MilestoneStatusInProgress, MilestoneStatusNeedsReview},
		to:    MilestoneStatusCanceled,
		roles: []Role{RoleOwner, RoleReviewer, RoleCampaignReviewer},
	},
	TriggerWithdraw: {
		from:  []MilestoneStatus{MilestoneStatusCompleted},
		to:    MilestoneStatusPaying,
		roles: []Role{RoleRecipient, RoleOwner},
		guard: func(m *Milestone) string {
			if !m.CurrentBalance().IsPositive() {
				return "no balance to withdraw"
			}
			return ""
		},
	},
	TriggerConfirmWithdrawal: {
		from:  []MilestoneStatus{MilestoneStatusPaying},
		to:    MilestoneStatusPaid,
		roles: []Role{RoleChain},
		guard: confirmationsReached,
	},
	TriggerFailWithdrawal: {
		from:  []MilestoneStatus{MilestoneStatusPaying},
		to:    MilestoneStatusFailed,
		roles: []Role{RoleChain},
	},
	TriggerConfirmCreation: {
		from:  []MilestoneStatus{MilestoneStatusPending},
		to:    MilestoneStatusInProgress,
		roles: []Role{RoleChain},
		guard: confirmationsReached,
	},
}

func confirmationsReached(m *Milestone) string {
	if m.confirmations < m.RequiredConfirmations {
		return "not enough confirmations"
	}
	return ""
}

// Transition is an applied status change.
type Transition struct {
	Trigger Trigger         `json:"trigger"`
	From    MilestoneStatus `json:"from"`
	To      MilestoneStatus `json:"to,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
}

// Authorize checks whether roles may fire trigger on m in its current state.
// Every rejection matches ErrInvalidTransition.
func Authorize(m *Milestone, trigger Trigger, roles RoleSet) error {
	rule, ok := transitionRules[trigger]
	reject := func(reason string) error {
		return &TransitionError{Trigger: trigger, From: m.status, Reason: reason}
	}
	switch {
	case !ok:
		return reject("unknown trigger")
	case m.deleted:
		return reject("milestone was deleted")
	case m.pending != nil:
		return reject("a transition is already pending")
	case !statusIn(m.status, rule.from):
		return reject("not allowed from this status")
	case !roles.any(rule.roles):
		return reject("actor lacks a permitted role")
	}
	if rule.guard != nil {
		if reason := rule.guard(m); reason != "" {
			return reject(reason)
		}
	}
	return nil
}

// AllowedTriggers lists the actions roles may take on m right now. Handlers
// use it to decide which actions to offer.
func AllowedTriggers(m *Milestone, roles RoleSet) []Trigger {
	var allowed []Trigger
	for _, t := range Triggers {
		if Authorize(m, t, roles) == nil {
			allowed = append(allowed, t)
		}
	}
	return allowed
}

// Apply fires a transition that needs no chain transaction.
func Apply(m *Milestone, trigger Trigger, roles RoleSet) (Transition, error) {
	if err := Authorize(m, trigger, roles); err != nil {
		return Transition{}, err
	}
	return m.commit(trigger, transitionRules[trigger].to), nil
}

// Begin records an optimistic transition backed by txHash. The status does
// not change until OnMined.
func Begin(m *Milestone, trigger Trigger, roles RoleSet, txHash string, now time.Time) (*PendingTransition, error) {
	if strings.TrimSpace(txHash) == "" {
		return nil, &TransitionError{Trigger: trigger, From: m.status, Reason: "transaction hash is required"}
	}
	if err := Authorize(m, trigger, roles); err != nil {
		return nil, err
	}
	m.pending = &PendingTransition{
		Trigger:           trigger,
		From:              m.status,
		To:                transitionRules[trigger].to,
		TxHash:            txHash,
		PrevMined:         m.mined,
		PrevConfirmations: m.confirmations,
		StartedAt:         now,
	}
	m.mined = false
	m.confirmations = 0
	return m.Pending(), nil
}

// OnMined applies the pending transition once its transaction is mined.
func OnMined(m *Milestone, txHash string) (Transition, error) {
	if m.pending == nil || !strings.EqualFold(m.pending.TxHash, txHash) {
		return Transition{}, ErrUnknownTransaction
	}
	p := m.pending
	m.pending = nil
	m.mined = true
	m.lastTx = p.TxHash
	return m.commit(p.Trigger, p.To), nil
}

// Rollback discards the pending transition after a failed or cancelled
// transaction, restoring the pre-attempt state.
func Rollback(m *Milestone, txHash string) error {
	if m.pending == nil || !strings.EqualFold(m.pending.TxHash, txHash) {
		return ErrUnknownTransaction
	}
	m.mined = m.pending.PrevMined
	m.confirmations = m.pending.PrevConfirmations
	m.pending = nil
	return nil
}

func (m *Milestone) commit(trigger Trigger, to MilestoneStatus) Transition {
	tr := Transition{Trigger: trigger, From: m.status, To: to}
	if to == "" {
		m.deleted = true
		tr.Deleted = true
		return tr
	}
	m.status = to
	return tr
}

func statusIn(s MilestoneStatus, set []MilestoneStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// CommitWindow is how long the receiving owner may reject a delegation
// before it commits automatically.
const CommitWindow = 72 * time.Hour

// CommitDeadline returns the auto-commit time for a delegation made at t.
func CommitDeadline(delegatedAt time.Time) time.Time {
	return delegatedAt.Add(CommitWindow)
}

// IsCommitWindowOpen reports whether a delegation can still be rejected.
func IsCommitWindowOpen(commitTime *time.Time, now time.Time) bool {
	if commitTime == nil || commitTime.IsZero() {
		return false
	}
	return now.Before(*commitTime)
}
