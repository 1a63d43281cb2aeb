package domain

import (
	"fmt"
	"strings"
)

var chainRoles = NewRoleSet(RoleChain)

// OnConfirmation records the confirmation depth the chain reports for txHash
// and drives the completion the depth unlocks. Only the pending transaction
// can be mined by a confirmation; counts for the last mined transaction
// advance its depth, and are ignored while a newer transaction is pending.
// Counts at or below the recorded depth are ignored, so replays and
// out-of-order reports are harmless. The returned transitions are the ones
// applied by this call.
func OnConfirmation(m *Milestone, txHash string, count int) ([]Transition, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConfirmations, count)
	}
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, fmt.Errorf("%w: transaction hash is required", ErrUnknownTransaction)
	}
	pendingMatch := m.pending != nil && strings.EqualFold(m.pending.TxHash, txHash)
	lastMatch := m.lastTx != "" && strings.EqualFold(m.lastTx, txHash)
	switch {
	case pendingMatch:
	case lastMatch && m.pending != nil:
		// Depth of a superseded transaction; the counter now tracks the
		// pending one.
		return nil, nil
	case lastMatch:
	default:
		return nil, ErrUnknownTransaction
	}

	if count <= m.confirmations {
		return nil, nil
	}
	m.confirmations = count
	if count < m.RequiredConfirmations {
		return nil, nil
	}

	var applied []Transition
	if pendingMatch {
		tr, err := OnMined(m, txHash)
		if err != nil {
			return nil, err
		}
		applied = append(applied, tr)
	}
	switch m.status {
	case MilestoneStatusPaying:
		tr, err := Apply(m, TriggerConfirmWithdrawal, chainRoles)
		if err != nil {
			return applied, err
		}
		applied = append(applied, tr)
	case MilestoneStatusPending:
		tr, err := Apply(m, TriggerConfirmCreation, chainRoles)
		if err != nil {
			return applied, err
		}
		applied = append(applied, tr)
	}
	return applied, nil
}

// FailWithdrawal moves a paying milestone to Failed after the chain reverted
// or timed out the payout.
func FailWithdrawal(m *Milestone) (Transition, error) {
	return Apply(m, TriggerFailWithdrawal, chainRoles)
}
