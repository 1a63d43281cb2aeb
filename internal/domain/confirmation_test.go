package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lastTx = "0xlast"

// minedMilestone is a milestone whose last transaction 0xlast is on chain.
func minedMilestone(t *testing.T, status MilestoneStatus) *Milestone {
	t.Helper()
	m := newTestMilestone(t, status)
	m.lastTx = lastTx
	m.mined = true
	return m
}

func TestOnConfirmationPayingToPaid(t *testing.T) {
	m := minedMilestone(t, MilestoneStatusPaying)
	m.confirmations = 5

	applied, err := OnConfirmation(m, lastTx, 6)
	require.NoError(t, err)
	assert.Equal(t, []Transition{{Trigger: TriggerConfirmWithdrawal, From: MilestoneStatusPaying, To: MilestoneStatusPaid}}, applied)
	assert.Equal(t, MilestoneStatusPaid, m.Status())
	assert.Equal(t, 6, m.Confirmations())
}

func TestOnConfirmationBelowRequired(t *testing.T) {
	m := minedMilestone(t, MilestoneStatusPaying)

	applied, err := OnConfirmation(m, lastTx, 3)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, MilestoneStatusPaying, m.Status())
	assert.Equal(t, 3, m.Confirmations())
}

func TestOnConfirmationIdempotent(t *testing.T) {
	sequences := [][]int{
		{4, 4},
		{7, 2},
		{2, 6, 6, 1},
		{6, 7, 3},
	}
	for _, seq := range sequences {
		replayed := minedMilestone(t, MilestoneStatusPaying)
		maxSeen := 0
		for _, c := range seq {
			_, err := OnConfirmation(replayed, lastTx, c)
			require.NoError(t, err)
			if c > maxSeen {
				maxSeen = c
			}
		}

		once := minedMilestone(t, MilestoneStatusPaying)
		_, err := OnConfirmation(once, lastTx, maxSeen)
		require.NoError(t, err)

		assert.Equal(t, once.Status(), replayed.Status(), "%v", seq)
		assert.Equal(t, once.Confirmations(), replayed.Confirmations(), "%v", seq)
		assert.Equal(t, once.Mined(), replayed.Mined(), "%v", seq)
	}
}

func TestOnConfirmationCompletesPendingTransition(t *testing.T) {
	m := newTestMilestone(t, MilestoneStatusNeedsReview)
	_, err := Begin(m, TriggerApproveCompletion, RolesFor(m, reviewer), "0xfeed", time.Now())
	require.NoError(t, err)

	applied, err := OnConfirmation(m, "0xFEED", 6)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, MilestoneStatusCompleted, m.Status())
	assert.True(t, m.Mined())
	assert.False(t, m.Busy())
	assert.Equal(t, "0xfeed", m.LastTxHash())
}

func TestOnConfirmationOfPreviousTxDoesNotMinePending(t *testing.T) {
	m := minedMilestone(t, MilestoneStatusNeedsReview)
	m.confirmations = 1
	_, err := Begin(m, TriggerApproveCompletion, RolesFor(m, reviewer), "0xnew", time.Now())
	require.NoError(t, err)

	applied, err := OnConfirmation(m, lastTx, 6)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, MilestoneStatusNeedsReview, m.Status())
	assert.False(t, m.Mined())
	assert.True(t, m.Busy())
	assert.Zero(t, m.Confirmations())
}

func TestOnConfirmationUnknownTx(t *testing.T) {
	m := minedMilestone(t, MilestoneStatusNeedsReview)
	_, err := Begin(m, TriggerApproveCompletion, RolesFor(m, reviewer), "0xpending", time.Now())
	require.NoError(t, err)

	for _, hash := range []string{"0xother", "", "  "} {
		applied, err := OnConfirmation(m, hash, 6)
		assert.ErrorIs(t, err, ErrUnknownTransaction, "%q", hash)
		assert.Empty(t, applied)
	}
	assert.Equal(t, MilestoneStatusNeedsReview, m.Status())
	assert.True(t, m.Busy())
}

func TestOnConfirmationPendingCreation(t *testing.T) {
	rec := testMilestoneRecord(MilestoneStatusPending)
	rec.TxHash = "0xcreate"
	m, err := NewMilestone(rec)
	require.NoError(t, err)

	applied, err := OnConfirmation(m, "0xcreate", 6)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, MilestoneStatusInProgress, m.Status())
}

func TestOnConfirmationRejectsNegative(t *testing.T) {
	m := minedMilestone(t, MilestoneStatusPaying)
	_, err := OnConfirmation(m, lastTx, -1)
	assert.ErrorIs(t, err, ErrInvalidConfirmations)
}

func TestFailWithdrawal(t *testing.T) {
	m := newTestMilestone(t, MilestoneStatusPaying)
	tr, err := FailWithdrawal(m)
	require.NoError(t, err)
	assert.Equal(t, MilestoneStatusFailed, tr.To)

	_, err = FailWithdrawal(m)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
