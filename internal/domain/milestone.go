package domain

import (
	"fmt"
	"strings"
	"time"

	"fundhub/internal/money"
)

// MilestoneStatus enumerates milestone lifecycle states.
type MilestoneStatus string

const (
	MilestoneStatusProposed    MilestoneStatus = "Proposed"
	MilestoneStatusRejected    MilestoneStatus = "Rejected"
	MilestoneStatusPending     MilestoneStatus = "Pending"
	MilestoneStatusInProgress  MilestoneStatus = "InProgress"
	MilestoneStatusNeedsReview MilestoneStatus = "NeedsReview"
	MilestoneStatusCompleted   MilestoneStatus = "Completed"
	MilestoneStatusCanceled    MilestoneStatus = "Canceled"
	MilestoneStatusPaying      MilestoneStatus = "Paying"
	MilestoneStatusPaid        MilestoneStatus = "Paid"
	MilestoneStatusFailed      MilestoneStatus = "Failed"
)

// MilestoneStatuses lists every status in lifecycle order.
var MilestoneStatuses = []MilestoneStatus{
	MilestoneStatusProposed,
	MilestoneStatusRejected,
	MilestoneStatusPending,
	MilestoneStatusInProgress,
	MilestoneStatusNeedsReview,
	MilestoneStatusCompleted,
	MilestoneStatusCanceled,
	MilestoneStatusPaying,
	MilestoneStatusPaid,
	MilestoneStatusFailed,
}

// Valid reports whether s is a known status.
func (s MilestoneStatus) Valid() bool {
	for _, known := range MilestoneStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultRequiredConfirmations is the confirmation depth used when a record
// does not specify one.
const DefaultRequiredConfirmations = 6

// MilestoneItem is an itemized cost entry.
type MilestoneItem struct {
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	Date        *time.Time  `json:"date,omitempty"`
}

// DonationCounter tracks the funds a milestone holds in one token.
type DonationCounter struct {
	Symbol         string      `json:"symbol"`
	CurrentBalance money.Money `json:"currentBalance"`
	TotalDonated   money.Money `json:"totalDonated"`
	DonationCount  int         `json:"donationCount"`
}

// PendingTransition is a lifecycle change submitted to the chain but not yet
// mined. The milestone keeps its prior status until the change is applied.
type PendingTransition struct {
	Trigger           Trigger         `json:"trigger"`
	From              MilestoneStatus `json:"from"`
	To                MilestoneStatus `json:"to,omitempty"`
	TxHash            string          `json:"txHash"`
	PrevMined         bool            `json:"prevMined"`
	PrevConfirmations int             `json:"prevConfirmations"`
	StartedAt         time.Time       `json:"startedAt"`
}

// MilestoneRecord is the persisted / API payload shape of a milestone.
type MilestoneRecord struct {
	ID                      string             `json:"_id,omitempty"`
	CampaignID              string             `json:"campaignId"`
	ProjectID               string             `json:"projectId,omitempty"`
	Title                   string             `json:"title"`
	Description             string             `json:"description,omitempty"`
	MaxAmount               *money.Money       `json:"maxAmount,omitempty"`
	Items                   []MilestoneItem    `json:"items,omitempty"`
	DonationCounters        []DonationCounter  `json:"donationCounters,omitempty"`
	Token                   Token              `json:"token"`
	FiatAmount              *money.Money       `json:"fiatAmount,omitempty"`
	SelectedFiatType        string             `json:"selectedFiatType,omitempty"`
	Status                  MilestoneStatus    `json:"status"`
	Mined                   bool               `json:"mined"`
	Confirmations           int                `json:"confirmations"`
	RequiredConfirmations   *int               `json:"requiredConfirmations,omitempty"`
	CommitTime              *time.Time         `json:"commitTime,omitempty"`
	ReviewerAddress         string             `json:"reviewerAddress,omitempty"`
	RecipientAddress        string             `json:"recipientAddress,omitempty"`
	CampaignReviewerAddress string             `json:"campaignReviewerAddress,omitempty"`
	OwnerAddress            string             `json:"ownerAddress,omitempty"`
	PluginAddress           string             `json:"pluginAddress,omitempty"`
	Date                    *time.Time         `json:"date,omitempty"`
	TxHash                  string             `json:"txHash,omitempty"`
	LastTxHash              string             `json:"lastTxHash,omitempty"`
	PendingTransition       *PendingTransition `json:"pendingTransition,omitempty"`
	Deleted                 bool               `json:"deleted,omitempty"`
}

// Milestone is a funded work item under a campaign. Status, mined and
// confirmation fields are only written by the lifecycle state machine, the
// confirmation tracker and snapshot replacement.
type Milestone struct {
	ID                      string
	CampaignID              string
	ProjectID               string
	Title                   string
	Description             string
	Items                   []MilestoneItem
	DonationCounters        []DonationCounter
	Token                   Token
	FiatAmount              money.Money
	SelectedFiatType        string
	RequiredConfirmations   int
	CommitTime              *time.Time
	ReviewerAddress         string
	RecipientAddress        string
	CampaignReviewerAddress string
	OwnerAddress            string
	PluginAddress           string
	Date                    *time.Time

	maxAmount     money.Money
	status        MilestoneStatus
	mined         bool
	confirmations int
	pending       *PendingTransition
	lastTx        string
	deleted       bool
}

// NewMilestone validates a record and builds the entity.
func NewMilestone(rec MilestoneRecord) (*Milestone, error) {
	if strings.TrimSpace(rec.CampaignID) == "" {
		return nil, fmt.Errorf("%w: milestone campaignId is required", ErrInvalidRecord)
	}
	status := rec.Status
	if status == "" {
		status = MilestoneStatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown milestone status %q", ErrInvalidRecord, rec.Status)
	}
	required := DefaultRequiredConfirmations
	if rec.RequiredConfirmations != nil {
		required = *rec.RequiredConfirmations
	}
	if required < 0 {
		return nil, fmt.Errorf("%w: requiredConfirmations must not be negative", ErrInvalidRecord)
	}
	if rec.Confirmations < 0 {
		return nil, fmt.Errorf("%w: confirmations must not be negative", ErrInvalidRecord)
	}
	token := rec.Token.Normalize()
	if err := token.Validate(); err != nil {
		return nil, err
	}
	if p := rec.PendingTransition; p != nil {
		if p.TxHash == "" || p.From != status {
			return nil, fmt.Errorf("%w: pending transition does not match milestone state", ErrInvalidRecord)
		}
	}

	m := &Milestone{
		ID:                      rec.ID,
		CampaignID:              rec.CampaignID,
		ProjectID:               rec.ProjectID,
		Title:                   rec.Title,
		Description:             rec.Description,
		Items:                   append([]MilestoneItem(nil), rec.Items...),
		DonationCounters:        append([]DonationCounter(nil), rec.DonationCounters...),
		Token:                   token,
		SelectedFiatType:        rec.SelectedFiatType,
		RequiredConfirmations:   required,
		CommitTime:              rec.CommitTime,
		ReviewerAddress:         rec.ReviewerAddress,
		RecipientAddress:        rec.RecipientAddress,
		CampaignReviewerAddress: rec.CampaignReviewerAddress,
		OwnerAddress:            rec.OwnerAddress,
		PluginAddress:           rec.PluginAddress,
		Date:                    rec.Date,
		status:                  status,
		mined:                   rec.Mined,
		confirmations:           rec.Confirmations,
		lastTx:                  rec.LastTxHash,
		deleted:                 rec.Deleted,
	}
	if m.lastTx == "" {
		m.lastTx = rec.TxHash
	}
	if m.SelectedFiatType == "" {
		m.SelectedFiatType = "EUR"
	}
	if rec.MaxAmount != nil {
		m.maxAmount = *rec.MaxAmount
	}
	if rec.FiatAmount != nil {
		m.FiatAmount = *rec.FiatAmount
	}
	if rec.PendingTransition != nil {
		p := *rec.PendingTransition
		m.pending = &p
	}
	return m, nil
}

// ApplySnapshot replaces the milestone with a newer snapshot of the same
// record. On error the milestone is left untouched.
func (m *Milestone) ApplySnapshot(rec MilestoneRecord) error {
	next, err := NewMilestone(rec)
	if err != nil {
		return err
	}
	if m.ID != "" && next.ID != m.ID {
		return fmt.Errorf("%w: snapshot for %s applied to %s", ErrInvalidRecord, next.ID, m.ID)
	}
	*m = *next
	return nil
}

// Record converts the milestone into its persisted shape. txHash is only
// attached to milestones that have not been stored yet.
func (m *Milestone) Record(txHash string) MilestoneRecord {
	required := m.RequiredConfirmations
	maxAmount := m.MaxAmount()
	fiat := m.FiatAmount
	rec := MilestoneRecord{
		ID:                      m.ID,
		CampaignID:              m.CampaignID,
		ProjectID:               m.ProjectID,
		Title:                   m.Title,
		Description:             m.Description,
		MaxAmount:               &maxAmount,
		Items:                   append([]MilestoneItem(nil), m.Items...),
		DonationCounters:        append([]DonationCounter(nil), m.DonationCounters...),
		Token:                   m.Token,
		FiatAmount:              &fiat,
		SelectedFiatType:        m.SelectedFiatType,
		Status:                  m.status,
		Mined:                   m.mined,
		Confirmations:           m.confirmations,
		RequiredConfirmations:   &required,
		CommitTime:              m.CommitTime,
		ReviewerAddress:         m.ReviewerAddress,
		RecipientAddress:        m.RecipientAddress,
		CampaignReviewerAddress: m.CampaignReviewerAddress,
		OwnerAddress:            m.OwnerAddress,
		PluginAddress:           m.PluginAddress,
		Date:                    m.Date,
		LastTxHash:              m.lastTx,
		PendingTransition:       m.Pending(),
		Deleted:                 m.deleted,
	}
	if m.ID == "" {
		rec.TxHash = txHash
	}
	return rec
}

func (m *Milestone) Status() MilestoneStatus { return m.status }
func (m *Milestone) Mined() bool             { return m.mined }
func (m *Milestone) Confirmations() int      { return m.confirmations }
func (m *Milestone) Deleted() bool           { return m.deleted }

// LastTxHash is the most recently mined transaction that moved the milestone.
// Confirmation polling follows this hash.
func (m *Milestone) LastTxHash() string { return m.lastTx }

// Busy reports whether a submitted transition is still waiting to be mined.
func (m *Milestone) Busy() bool { return m.pending != nil }

// Pending returns a copy of the in-flight transition, if any.
func (m *Milestone) Pending() *PendingTransition {
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// Itemized reports whether the funding target comes from cost entries.
func (m *Milestone) Itemized() bool { return len(m.Items) > 0 }

// MaxAmount is the funding target.
func (m *Milestone) MaxAmount() money.Money {
	if !m.Itemized() {
		return m.maxAmount
	}
	total := money.Zero()
	for _, item := range m.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// CurrentBalance sums the donation counters held in the milestone's token.
func (m *Milestone) CurrentBalance() money.Money {
	total := money.Zero()
	for _, c := range m.DonationCounters {
		if strings.EqualFold(c.Symbol, m.Token.Symbol) {
			total = total.Add(c.CurrentBalance)
		}
	}
	return total
}

// FullyFunded reports whether the balance reached the funding target.
func (m *Milestone) FullyFunded() bool {
	return !m.CurrentBalance().LessThan(m.MaxAmount())
}

// RemainingHeadroom is how much more the milestone can receive.
func (m *Milestone) RemainingHeadroom() money.Money {
	return m.MaxAmount().SubClamped(m.CurrentBalance())
}

// IsActive reports whether the milestone accepts donations and delegations.
func (m *Milestone) IsActive() bool {
	return m.status == MilestoneStatusInProgress && !m.FullyFunded()
}

// Destination addresses the milestone as a delegation target.
func (m *Milestone) Destination() DelegationDestination {
	return DelegationDestination{
		ID:        m.ID,
		Type:      EntityTypeMilestone,
		ProjectID: m.ProjectID,
		Title:     m.Title,
	}
}
