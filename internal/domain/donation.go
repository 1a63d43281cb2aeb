package domain

import (
	"fmt"
	"strings"
	"time"

	"fundhub/internal/money"
)

// DonationStatus enumerates the states of a donation on the ledger.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "Pending"
	DonationStatusPaying    DonationStatus = "Paying"
	DonationStatusPaid      DonationStatus = "Paid"
	DonationStatusToApprove DonationStatus = "ToApprove"
	DonationStatusWaiting   DonationStatus = "Waiting"
	DonationStatusCommitted DonationStatus = "Committed"
	DonationStatusCanceled  DonationStatus = "Canceled"
	DonationStatusRejected  DonationStatus = "Rejected"
	DonationStatusFailed    DonationStatus = "Failed"
)

var donationStatuses = map[DonationStatus]struct{}{
	DonationStatusPending:   {},
	DonationStatusPaying:    {},
	DonationStatusPaid:      {},
	DonationStatusToApprove: {},
	DonationStatusWaiting:   {},
	DonationStatusCommitted: {},
	DonationStatusCanceled:  {},
	DonationStatusRejected:  {},
	DonationStatusFailed:    {},
}

// EntityType names the kind of entity funds are earmarked to.
type EntityType string

const (
	EntityTypeGiver     EntityType = "giver"
	EntityTypeDAC       EntityType = "dac"
	EntityTypeCampaign  EntityType = "campaign"
	EntityTypeMilestone EntityType = "milestone"
)

// Donation is a unit of funds earmarked to an owner entity. It is consumed
// whole by a delegation; only AmountRemaining is tracked.
type Donation struct {
	ID              string
	AmountRemaining money.Money
	Token           Token
	OwnerID         string
	OwnerTypeID     string
	OwnerType       EntityType
	DelegateID      string
	DelegateTypeID  string
	Status          DonationStatus
	GiverAddress    string
	CreatedAt       time.Time
	CommitTime      *time.Time
}

// DonationRecord is the document shape of a donation.
type DonationRecord struct {
	ID              string         `json:"_id"`
	AmountRemaining money.Money    `json:"amountRemaining"`
	Token           Token          `json:"token"`
	OwnerID         string         `json:"ownerId"`
	OwnerTypeID     string         `json:"ownerTypeId"`
	OwnerType       EntityType     `json:"ownerType"`
	DelegateID      string         `json:"delegateId,omitempty"`
	DelegateTypeID  string         `json:"delegateTypeId,omitempty"`
	Status          DonationStatus `json:"status"`
	GiverAddress    string         `json:"giverAddress,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	CommitTime      *time.Time     `json:"commitTime,omitempty"`
}

// NewDonation validates a record and builds the entity.
func NewDonation(rec DonationRecord) (Donation, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return Donation{}, fmt.Errorf("%w: donation id is required", ErrInvalidRecord)
	}
	if _, ok := donationStatuses[rec.Status]; !ok {
		return Donation{}, fmt.Errorf("%w: donation %s has unknown status %q", ErrInvalidRecord, rec.ID, rec.Status)
	}
	if rec.CreatedAt.IsZero() {
		return Donation{}, fmt.Errorf("%w: donation %s has no createdAt", ErrInvalidRecord, rec.ID)
	}
	token := rec.Token.Normalize()
	if err := token.Validate(); err != nil {
		return Donation{}, err
	}
	return Donation{
		ID:              rec.ID,
		AmountRemaining: rec.AmountRemaining,
		Token:           token,
		OwnerID:         rec.OwnerID,
		OwnerTypeID:     rec.OwnerTypeID,
		OwnerType:       rec.OwnerType,
		DelegateID:      rec.DelegateID,
		DelegateTypeID:  rec.DelegateTypeID,
		Status:          rec.Status,
		GiverAddress:    rec.GiverAddress,
		CreatedAt:       rec.CreatedAt,
		CommitTime:      rec.CommitTime,
	}, nil
}

// Record converts the donation back into its document shape.
func (d Donation) Record() DonationRecord {
	return DonationRecord{
		ID:              d.ID,
		AmountRemaining: d.AmountRemaining,
		Token:           d.Token,
		OwnerID:         d.OwnerID,
		OwnerTypeID:     d.OwnerTypeID,
		OwnerType:       d.OwnerType,
		DelegateID:      d.DelegateID,
		DelegateTypeID:  d.DelegateTypeID,
		Status:          d.Status,
		GiverAddress:    d.GiverAddress,
		CreatedAt:       d.CreatedAt,
		CommitTime:      d.CommitTime,
	}
}

// AwaitingCommit reports whether the donation was delegated and still sits in
// its rejection window as of now.
func (d Donation) AwaitingCommit(now time.Time) bool {
	if d.Status != DonationStatusWaiting && d.Status != DonationStatusToApprove {
		return false
	}
	return IsCommitWindowOpen(d.CommitTime, now)
}
