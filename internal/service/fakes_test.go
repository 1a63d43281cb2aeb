package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fundhub/internal/chain"
	"fundhub/internal/delegation"
	"fundhub/internal/domain"
	"fundhub/internal/feed"
	"fundhub/internal/money"
)

var nopLogger = zerolog.Nop()

var (
	ownerActor     = domain.Actor{Address: "0xowner"}
	reviewerActor  = domain.Actor{Address: "0xreviewer"}
	recipientActor = domain.Actor{Address: "0xrecipient"}
	strangerActor  = domain.Actor{Address: "0xstranger"}
)

var eth = domain.Token{Symbol: "ETH", Address: "0x0000000000000000000000000000000000000000", Decimals: 18}

func intPtr(v int) *int { return &v }

func moneyPtr(s string) *money.Money {
	m := money.MustParse(s)
	return &m
}

func milestoneRecord(id string, status domain.MilestoneStatus) domain.MilestoneRecord {
	return domain.MilestoneRecord{
		ID:                    id,
		CampaignID:            "camp-1",
		ProjectID:             "12",
		Title:                 "Build the well",
		MaxAmount:             moneyPtr("100"),
		Token:                 eth,
		Status:                status,
		RequiredConfirmations: intPtr(2),
		OwnerAddress:          ownerActor.Address,
		ReviewerAddress:       reviewerActor.Address,
		RecipientAddress:      recipientActor.Address,
		PluginAddress:         "0xplugin",
		DonationCounters: []domain.DonationCounter{
			{Symbol: "ETH", CurrentBalance: money.MustParse("40"), TotalDonated: money.MustParse("40"), DonationCount: 2},
		},
	}
}

type memMilestones struct {
	mu      sync.Mutex
	records map[string]domain.MilestoneRecord
	saves   int
	saveErr error
}

func newMemMilestones(recs ...domain.MilestoneRecord) *memMilestones {
	r := &memMilestones{records: map[string]domain.MilestoneRecord{}}
	for _, rec := range recs {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *memMilestones) GetByID(_ context.Context, id string) (*domain.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.NewMilestone(rec)
}

func (r *memMilestones) Save(_ context.Context, m *domain.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.records[m.ID] = m.Record("")
	return nil
}

func (r *memMilestones) ListAwaitingChain(_ context.Context, limit int) ([]*domain.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*domain.Milestone
	for _, id := range ids {
		rec := r.records[id]
		if rec.PendingTransition == nil && rec.Status != domain.MilestoneStatusPending && rec.Status != domain.MilestoneStatusPaying {
			continue
		}
		m, err := domain.NewMilestone(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memMilestones) record(id string) domain.MilestoneRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

type fakeChain struct {
	mu          sync.Mutex
	delegations []delegation.ChainRequest
	withdrawals []chain.WithdrawRequest
	statuses    map[string]chain.TxStatus
	err         error
}

func (c *fakeChain) Delegate(_ context.Context, req delegation.ChainRequest) (chain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return chain.Handle{}, c.err
	}
	c.delegations = append(c.delegations, req)
	return chain.Handle{TxHash: "0xdelegate", TxLink: "https://explorer/tx/0xdelegate"}, nil
}

func (c *fakeChain) Withdraw(_ context.Context, req chain.WithdrawRequest) (chain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return chain.Handle{}, c.err
	}
	c.withdrawals = append(c.withdrawals, req)
	return chain.Handle{TxHash: "0xwithdraw"}, nil
}

func (c *fakeChain) Status(_ context.Context, txHash string) (chain.TxStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.statuses[txHash]; ok {
		return st, nil
	}
	return chain.TxStatus{TxHash: txHash, State: chain.TxUnknown}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []feed.Message
}

func (p *recordingPublisher) Publish(msg feed.Message) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return 1
}

func (p *recordingPublisher) messages() []feed.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]feed.Message(nil), p.msgs...)
}

type memDonations struct {
	mu        sync.Mutex
	items     []domain.Donation
	queries   []domain.DonationQuery
	committed []string
	markErr   map[string]error
}

func (r *memDonations) ListForDelegation(_ context.Context, q domain.DonationQuery) ([]domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	var out []domain.Donation
	for _, d := range r.items {
		if d.Status != q.Status || !d.AmountRemaining.IsPositive() || d.Token.Symbol != q.TokenSymbol {
			continue
		}
		if q.DelegateID != "" && (d.DelegateID != q.DelegateID || d.DelegateTypeID != q.DelegateTypeID) {
			continue
		}
		if q.OwnerID != "" && (d.OwnerID != q.OwnerID || d.OwnerTypeID != q.OwnerTypeID) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *memDonations) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			d := r.items[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memDonations) ListCommitExpired(_ context.Context, now time.Time, limit int) ([]domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Donation
	for _, d := range r.items {
		if d.Status != domain.DonationStatusWaiting && d.Status != domain.DonationStatusToApprove {
			continue
		}
		if d.CommitTime == nil || d.CommitTime.After(now) {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memDonations) MarkCommitted(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.markErr[id]; err != nil {
		return err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = domain.DonationStatusCommitted
			r.committed = append(r.committed, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memSources struct {
	dacs      []domain.DelegationSource
	campaigns map[string]domain.Campaign
}

func (r *memSources) ListDACsByOwner(_ context.Context, owner string) ([]domain.DelegationSource, error) {
	var out []domain.DelegationSource
	for _, d := range r.dacs {
		if (domain.Actor{Address: owner}).Is(d.OwnerAddress) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memSources) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}
