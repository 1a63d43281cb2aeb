package domain

import (
	"fmt"
	"strings"
)

// DefaultDelegationBatch is how many of the oldest eligible donations a
// single delegation consumes.
const DefaultDelegationBatch = 100

// DelegationSource is a DAC or campaign whose earmarked donations can be
// delegated onward.
type DelegationSource struct {
	ID             string     `json:"id"`
	Type           EntityType `json:"type"`
	Name           string     `json:"name"`
	OwnerAddress   string     `json:"ownerAddress,omitempty"`
	DelegateID     string     `json:"delegateId,omitempty"`
	DelegateEntity string     `json:"delegateEntity,omitempty"`
	ProjectID      string     `json:"projectId,omitempty"`
	OwnerEntity    string     `json:"ownerEntity,omitempty"`
}

// Validate checks the fields the donation query needs for the source type.
func (s DelegationSource) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: delegation source id is required", ErrInvalidRecord)
	}
	switch s.Type {
	case EntityTypeDAC:
		if s.DelegateID == "" {
			return fmt.Errorf("%w: dac %s has no delegate id", ErrInvalidRecord, s.ID)
		}
	case EntityTypeCampaign:
		if s.ProjectID == "" {
			return fmt.Errorf("%w: campaign %s has no project id", ErrInvalidRecord, s.ID)
		}
	default:
		return fmt.Errorf("%w: unsupported delegation source type %q", ErrInvalidRecord, s.Type)
	}
	return nil
}

// DonationQuery is the filter contract handed to the document store. The
// store must return matches sorted by createdAt ascending and must exclude
// donations with nothing remaining.
type DonationQuery struct {
	OwnerID        string
	OwnerTypeID    string
	DelegateID     string
	DelegateTypeID string
	Status         DonationStatus
	TokenSymbol    string
	Limit          int
}

// DonationQuery builds the filter selecting the donations this source may
// delegate in the given token.
func (s DelegationSource) DonationQuery(token Token, limit int) DonationQuery {
	if limit <= 0 {
		limit = DefaultDelegationBatch
	}
	q := DonationQuery{TokenSymbol: token.Symbol, Limit: limit}
	switch s.Type {
	case EntityTypeDAC:
		q.DelegateID = s.DelegateID
		q.DelegateTypeID = s.ID
		q.Status = DonationStatusWaiting
	case EntityTypeCampaign:
		q.OwnerID = s.ProjectID
		q.OwnerTypeID = s.ID
		q.Status = DonationStatusCommitted
	}
	return q
}

// DelegationDestination is the campaign or milestone receiving delegated funds.
type DelegationDestination struct {
	ID        string     `json:"id"`
	Type      EntityType `json:"type"`
	ProjectID string     `json:"projectId"`
	Title     string     `json:"title,omitempty"`
}

// Validate checks the destination can be addressed on chain.
func (d DelegationDestination) Validate() error {
	if d.Type != EntityTypeCampaign && d.Type != EntityTypeMilestone {
		return fmt.Errorf("%w: unsupported delegation destination type %q", ErrInvalidRecord, d.Type)
	}
	if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.ProjectID) == "" {
		return fmt.Errorf("%w: delegation destination needs id and project id", ErrInvalidRecord)
	}
	return nil
}
