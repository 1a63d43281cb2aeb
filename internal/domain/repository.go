package domain

import (
	"context"
	"time"
)

// MilestoneRepository persists milestones together with their counters and
// any pending transition.
type MilestoneRepository interface {
	GetByID(ctx context.Context, id string) (*Milestone, error)
	Save(ctx context.Context, m *Milestone) error
	ListAwaitingChain(ctx context.Context, limit int) ([]*Milestone, error)
}

// DonationRepository provides the donation queries the delegation flow needs.
type DonationRepository interface {
	// ListForDelegation returns donations matching q sorted by createdAt
	// ascending, excluding donations with nothing remaining.
	ListForDelegation(ctx context.Context, q DonationQuery) ([]Donation, error)
	GetByID(ctx context.Context, id string) (*Donation, error)
	ListCommitExpired(ctx context.Context, now time.Time, limit int) ([]Donation, error)
	MarkCommitted(ctx context.Context, id string) error
}

// DelegationSourceRepository looks up the entities an actor can delegate from.
type DelegationSourceRepository interface {
	ListDACsByOwner(ctx context.Context, ownerAddress string) ([]DelegationSource, error)
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
}

// Campaign is the parent of milestones and a possible delegation source.
type Campaign struct {
	ID              string
	Title           string
	ProjectID       string
	OwnerAddress    string
	ReviewerAddress string
}

// AsSource exposes the campaign as a delegation source.
func (c Campaign) AsSource(ownerEntity string) DelegationSource {
	return DelegationSource{
		ID:           c.ID,
		Type:         EntityTypeCampaign,
		Name:         c.Title,
		OwnerAddress: c.OwnerAddress,
		ProjectID:    c.ProjectID,
		OwnerEntity:  ownerEntity,
	}
}

// AsDestination addresses the campaign as a delegation target.
func (c Campaign) AsDestination() DelegationDestination {
	return DelegationDestination{
		ID:        c.ID,
		Type:      EntityTypeCampaign,
		ProjectID: c.ProjectID,
		Title:     c.Title,
	}
}
