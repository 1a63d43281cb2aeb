// Package chain talks to the chain gateway that signs and broadcasts
// delegation and withdrawal transactions, and models the lifecycle events a
// transaction produces.
package chain

import (
	"context"
	"fmt"
	"time"

	"fundhub/internal/delegation"
	"fundhub/internal/domain"
)

// Client is the chain collaborator used by the services.
type Client interface {
	Delegate(ctx context.Context, req delegation.ChainRequest) (Handle, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (Handle, error)
	Status(ctx context.Context, txHash string) (TxStatus, error)
}

// Handle identifies a submitted transaction.
type Handle struct {
	TxHash string `json:"txHash"`
	TxLink string `json:"txLink,omitempty"`
}

// WithdrawRequest pays out a completed milestone to its recipient.
type WithdrawRequest struct {
	MilestoneID      string       `json:"milestoneId"`
	ProjectID        string       `json:"projectId"`
	RecipientAddress string       `json:"recipientAddress"`
	PluginAddress    string       `json:"pluginAddress,omitempty"`
	Token            domain.Token `json:"token"`
	Amount           string       `json:"amount"`
}

// NewWithdrawRequest builds the payout request for the milestone's current
// balance in its token.
func NewWithdrawRequest(m *domain.Milestone) (WithdrawRequest, error) {
	amount, err := m.Token.SmallestUnit(m.CurrentBalance())
	if err != nil {
		return WithdrawRequest{}, err
	}
	return WithdrawRequest{
		MilestoneID:      m.ID,
		ProjectID:        m.ProjectID,
		RecipientAddress: m.RecipientAddress,
		PluginAddress:    m.PluginAddress,
		Token:            m.Token,
		Amount:           amount,
	}, nil
}

// TxState is the gateway's view of a transaction.
type TxState string

const (
	TxPending TxState = "pending"
	TxMined   TxState = "mined"
	TxFailed  TxState = "failed"
	TxUnknown TxState = "unknown"
)

// TxStatus is a point-in-time status report for one transaction.
type TxStatus struct {
	TxHash        string  `json:"txHash"`
	State         TxState `json:"status"`
	Confirmations int     `json:"confirmations"`
	BlockNumber   uint64  `json:"blockNumber,omitempty"`
}

// EventKind names the stages of a transaction the UI reacts to.
type EventKind string

const (
	EventCreated         EventKind = "created"
	EventConfirmed       EventKind = "confirmed"
	EventFailed          EventKind = "failed"
	EventCancelledByUser EventKind = "cancelledByUser"
)

// Event is one stage of a transaction's life.
type Event struct {
	Kind          EventKind `json:"kind"`
	TxHash        string    `json:"txHash"`
	TxLink        string    `json:"txLink,omitempty"`
	Confirmations int       `json:"confirmations,omitempty"`
	At            time.Time `json:"at"`
}

// Validate rejects events the milestone service cannot act on.
func (e Event) Validate() error {
	switch e.Kind {
	case EventCreated, EventConfirmed, EventFailed, EventCancelledByUser:
	default:
		return fmt.Errorf("%w: unknown chain event %q", domain.ErrInvalidRecord, e.Kind)
	}
	if e.TxHash == "" {
		return fmt.Errorf("%w: chain event without tx hash", domain.ErrInvalidRecord)
	}
	if e.Confirmations < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidConfirmations, e.Confirmations)
	}
	return nil
}

// EventFromStatus turns a polled status into the event it implies. ok is
// false while the transaction is still pending or unknown.
func EventFromStatus(st TxStatus, link string, now time.Time) (Event, bool) {
	ev := Event{TxHash: st.TxHash, TxLink: link, Confirmations: st.Confirmations, At: now}
	switch st.State {
	case TxMined:
		ev.Kind = EventConfirmed
	case TxFailed:
		ev.Kind = EventFailed
	default:
		return Event{}, false
	}
	return ev, true
}

// Error is a failed gateway call. It matches domain.ErrChainFailure.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("chain %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chain %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return domain.ErrChainFailure }

// Retryable reports whether the call may succeed if repeated.
func (e *Error) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
