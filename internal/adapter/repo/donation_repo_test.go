package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundhub/internal/domain"
	"fundhub/internal/sqlinline"
)

func donationRow(id, amount string, created time.Time, commit *time.Time) []any {
	return []any{
		id, amount, "ETH", "0x0", 18,
		"44", "dac-1", "dac", "7", "dac-1",
		"Waiting", "0xgiver", created, commit,
	}
}

func TestListForDelegationArgsAndOrder(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	db := &stubSQL{rows: [][]any{
		donationRow("d1", "40", t0, nil),
		donationRow("d2", "70.5", t0.Add(time.Hour), nil),
	}}
	repo := NewDonationRepository(db)

	src := domain.DelegationSource{ID: "dac-1", Type: domain.EntityTypeDAC, DelegateID: "7"}
	items, err := repo.ListForDelegation(context.Background(), src.DonationQuery(domain.Token{Symbol: "ETH"}, 0))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "d1", items[0].ID)
	assert.Equal(t, "70.5", items[1].AmountRemaining.String())
	assert.Equal(t, 18, items[0].Token.Decimals)
	assert.Equal(t, domain.EntityTypeDAC, items[0].OwnerType)

	c := db.last()
	assert.Equal(t, sqlinline.QListDonationsForDelegation, c.query)
	assert.Equal(t, []any{"Waiting", "ETH", "", "", "7", "dac-1", domain.DefaultDelegationBatch}, c.args)
}

func TestDonationKeepsZeroDecimalToken(t *testing.T) {
	row := donationRow("d1", "40", time.Now(), nil)
	row[2], row[4] = "WHOLE", 0
	repo := NewDonationRepository(&stubSQL{rows: [][]any{row}})

	items, err := repo.ListForDelegation(context.Background(), domain.DonationQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].Token.Decimals)
}

func TestListForDelegationEmpty(t *testing.T) {
	repo := NewDonationRepository(&stubSQL{})
	items, err := repo.ListForDelegation(context.Background(), domain.DonationQuery{Status: domain.DonationStatusCommitted})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListForDelegationRejectsBadAmount(t *testing.T) {
	repo := NewDonationRepository(&stubSQL{rows: [][]any{donationRow("d1", "-3", time.Now(), nil)}})
	_, err := repo.ListForDelegation(context.Background(), domain.DonationQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestDonationGetByID(t *testing.T) {
	commit := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	repo := NewDonationRepository(&stubSQL{rows: [][]any{donationRow("d1", "1", commit.Add(-72*time.Hour), &commit)}})

	d, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, d.CommitTime)
	assert.True(t, d.CommitTime.Equal(commit))

	_, err = NewDonationRepository(&stubSQL{}).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCommitExpired(t *testing.T) {
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.FixedZone("x", 3600))
	db := &stubSQL{}
	repo := NewDonationRepository(db)

	_, err := repo.ListCommitExpired(context.Background(), now, 10)
	require.NoError(t, err)
	c := db.last()
	assert.Equal(t, sqlinline.QListCommitExpiredDonations, c.query)
	assert.Equal(t, time.UTC, c.args[0].(time.Time).Location())
	assert.Equal(t, 10, c.args[1])
}

func TestMarkCommitted(t *testing.T) {
	db := &stubSQL{affected: 1}
	require.NoError(t, NewDonationRepository(db).MarkCommitted(context.Background(), "d1"))
	assert.Equal(t, []any{"d1"}, db.last().args)

	err := NewDonationRepository(&stubSQL{affected: 0}).MarkCommitted(context.Background(), "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("boom")
	err = NewDonationRepository(&stubSQL{err: boom}).MarkCommitted(context.Background(), "d1")
	assert.ErrorIs(t, err, boom)
}
