package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundhub/internal/domain"
)

func TestListDACsByOwner(t *testing.T) {
	db := &stubSQL{rows: [][]any{
		{"dac-1", "Water DAC", "0xowner", "7"},
		{"dac-2", "School DAC", "0xowner", "9"},
	}}
	items, err := NewSourceRepository(db).ListDACsByOwner(context.Background(), "0xOwner")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.EntityTypeDAC, items[0].Type)
	assert.Equal(t, "9", items[1].DelegateID)
	assert.NoError(t, items[0].Validate())
}

func TestGetCampaign(t *testing.T) {
	db := &stubSQL{rows: [][]any{{"camp-1", "Wells", "44", "0xowner", "0xreviewer"}}}
	c, err := NewSourceRepository(db).GetCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "44", c.ProjectID)
	assert.Equal(t, "0xreviewer", c.ReviewerAddress)

	_, err = NewSourceRepository(&stubSQL{}).GetCampaign(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
