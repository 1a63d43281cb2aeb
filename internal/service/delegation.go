package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fundhub/internal/chain"
	"fundhub/internal/delegation"
	"fundhub/internal/domain"
	"fundhub/internal/domain/jsoncfg"
	"fundhub/internal/infra"
	"fundhub/internal/money"
)

// DelegationRequest names what to delegate from where to where. Amount is
// ignored by Preview except as a target to check against.
type DelegationRequest struct {
	SourceType      domain.EntityType `json:"sourceType"`
	SourceID        string            `json:"sourceId"`
	TokenAddress    string            `json:"tokenAddress,omitempty"`
	TokenSymbol     string            `json:"tokenSymbol,omitempty"`
	DestinationType domain.EntityType `json:"destinationType"`
	DestinationID   string            `json:"destinationId"`
	Amount          string            `json:"amount,omitempty"`
}

// DelegationPreview is what the amount picker needs.
type DelegationPreview struct {
	Source        domain.DelegationSource      `json:"source"`
	Destination   domain.DelegationDestination `json:"destination"`
	Token         domain.Token                 `json:"token"`
	DonationIDs   []string                     `json:"donationIds"`
	TotalSelected money.Money                  `json:"totalSelected"`
	Available     money.Money                  `json:"available"`
	Capped        bool                         `json:"capped"`
	SliderStep    money.Money                  `json:"sliderStep"`
	CanSubmit     bool                         `json:"canSubmit"`

	selection delegation.Selection
}

// DelegationReceipt is returned once the chain gateway accepted a delegation.
type DelegationReceipt struct {
	Preview DelegationPreview `json:"preview"`
	Amount  money.Money       `json:"amount"`
	TxHash  string            `json:"txHash"`
	TxLink  string            `json:"txLink,omitempty"`
}

// CommitWindowView reports whether a delegated donation can still be
// rejected by its receiver.
type CommitWindowView struct {
	DonationID string                `json:"donationId"`
	Status     domain.DonationStatus `json:"status"`
	CommitTime *time.Time            `json:"commitTime,omitempty"`
	Open       bool                  `json:"open"`
	Remaining  string                `json:"remaining,omitempty"`
}

// DelegationService resolves sources and destinations, aggregates donation
// pools and submits delegations to the chain.
type DelegationService struct {
	donations  domain.DonationRepository
	sources    domain.DelegationSourceRepository
	milestones domain.MilestoneRepository
	chain      chain.Client
	whitelist  *jsoncfg.Whitelist
	batch      int
	log        infra.Logger
	now        func() time.Time
}

// DelegationServiceOptions wires the service's collaborators.
type DelegationServiceOptions struct {
	Donations  domain.DonationRepository
	Sources    domain.DelegationSourceRepository
	Milestones domain.MilestoneRepository
	Chain      chain.Client
	Whitelist  *jsoncfg.Whitelist
	BatchSize  int
	Logger     infra.Logger
}

func NewDelegationService(opts DelegationServiceOptions) *DelegationService {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = domain.DefaultDelegationBatch
	}
	return &DelegationService{
		donations:  opts.Donations,
		sources:    opts.Sources,
		milestones: opts.Milestones,
		chain:      opts.Chain,
		whitelist:  opts.Whitelist,
		batch:      batch,
		log:        opts.Logger.With().Str("component", "delegation_service").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sources lists what actor can delegate from: the DACs they manage with an
// on-chain delegate id and, when campaignID is given, that campaign if they
// own it.
func (s *DelegationService) Sources(ctx context.Context, actor domain.Actor, campaignID string) ([]domain.DelegationSource, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	dacs, err := s.sources.ListDACsByOwner(ctx, actor.Address)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DelegationSource, 0, len(dacs)+1)
	for _, d := range dacs {
		if d.Validate() != nil {
			continue
		}
		out = append(out, d)
	}
	if campaignID != "" {
		c, err := s.sources.GetCampaign(ctx, campaignID)
		switch {
		case err == nil && actor.Is(c.OwnerAddress):
			out = append(out, c.AsSource(""))
		case err != nil && err != domain.ErrNotFound:
			return nil, err
		}
	}
	return out, nil
}

// Preview aggregates the donation pool for req without submitting anything.
func (s *DelegationService) Preview(ctx context.Context, actor domain.Actor, req DelegationRequest) (DelegationPreview, error) {
	if !actor.Authenticated() {
		return DelegationPreview{}, domain.ErrUnauthorized
	}
	token, err := s.resolveToken(req)
	if err != nil {
		return DelegationPreview{}, err
	}
	src, err := s.resolveSource(ctx, actor, req)
	if err != nil {
		return DelegationPreview{}, err
	}
	dest, limit, err := s.resolveDestination(ctx, src, token, req)
	if err != nil {
		return DelegationPreview{}, err
	}

	target := money.Zero()
	if strings.TrimSpace(req.Amount) != "" {
		if target, err = token.ParseAmount(req.Amount); err != nil {
			return DelegationPreview{}, err
		}
	}

	pool, err := s.donations.ListForDelegation(ctx, src.DonationQuery(token, s.batch))
	if err != nil {
		return DelegationPreview{}, err
	}
	sel, err := delegation.SelectDonations(pool, target, token, limit)
	preview := DelegationPreview{
		Source:        src,
		Destination:   dest,
		Token:         token,
		DonationIDs:   sel.DonationIDs(),
		TotalSelected: sel.TotalSelected,
		Available:     sel.Available,
		Capped:        sel.Capped,
		SliderStep:    sel.SliderStep(),
		CanSubmit:     sel.CanSubmit(),
		selection:     sel,
	}
	return preview, err
}

// Submit validates the chosen amount against a fresh preview and hands the
// delegation to the chain gateway.
func (s *DelegationService) Submit(ctx context.Context, actor domain.Actor, req DelegationRequest) (DelegationReceipt, error) {
	if strings.TrimSpace(req.Amount) == "" {
		return DelegationReceipt{}, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	preview, err := s.Preview(ctx, actor, DelegationRequest{
		SourceType:      req.SourceType,
		SourceID:        req.SourceID,
		TokenAddress:    req.TokenAddress,
		TokenSymbol:     req.TokenSymbol,
		DestinationType: req.DestinationType,
		DestinationID:   req.DestinationID,
	})
	if err != nil {
		return DelegationReceipt{}, err
	}
	amount, err := preview.Token.ParseAmount(req.Amount)
	if err != nil {
		return DelegationReceipt{}, err
	}
	chainReq, err := preview.selection.BuildRequest(amount, preview.Destination)
	if err != nil {
		return DelegationReceipt{}, err
	}
	handle, err := s.chain.Delegate(ctx, chainReq)
	if err != nil {
		s.log.Warn().Err(err).Str("source_id", preview.Source.ID).Str("destination_id", preview.Destination.ID).Msg("delegation submit failed")
		return DelegationReceipt{}, err
	}
	s.log.Info().
		Str("source_id", preview.Source.ID).
		Str("destination_id", preview.Destination.ID).
		Str("amount", amount.String()).
		Int("donations", len(chainReq.DonationIDs)).
		Str("tx_hash", handle.TxHash).
		Msg("delegation submitted")
	return DelegationReceipt{Preview: preview, Amount: amount, TxHash: handle.TxHash, TxLink: handle.TxLink}, nil
}

// CommitWindow reports the rejection window of a delegated donation.
func (s *DelegationService) CommitWindow(ctx context.Context, donationID string) (CommitWindowView, error) {
	d, err := s.donations.GetByID(ctx, donationID)
	if err != nil {
		return CommitWindowView{}, err
	}
	now := s.now()
	view := CommitWindowView{DonationID: d.ID, Status: d.Status, CommitTime: d.CommitTime, Open: d.AwaitingCommit(now)}
	if view.Open {
		view.Remaining = d.CommitTime.Sub(now).Round(time.Second).String()
	}
	return view, nil
}

func (s *DelegationService) resolveToken(req DelegationRequest) (domain.Token, error) {
	if s.whitelist == nil {
		return domain.Token{}, fmt.Errorf("%w: token whitelist not loaded", domain.ErrTokenMismatch)
	}
	ref := domain.Token{Address: req.TokenAddress, Symbol: req.TokenSymbol}
	if ref.Address == "" && ref.Symbol == "" {
		return s.whitelist.DefaultToken(), nil
	}
	token, ok := s.whitelist.Resolve(ref)
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: token %s%s is not whitelisted", domain.ErrTokenMismatch, ref.Symbol, ref.Address)
	}
	return token, nil
}

func (s *DelegationService) resolveSource(ctx context.Context, actor domain.Actor, req DelegationRequest) (domain.DelegationSource, error) {
	switch req.SourceType {
	case domain.EntityTypeDAC:
		dacs, err := s.sources.ListDACsByOwner(ctx, actor.Address)
		if err != nil {
			return domain.DelegationSource{}, err
		}
		for _, d := range dacs {
			if d.ID == req.SourceID {
				return d, d.Validate()
			}
		}
		return domain.DelegationSource{}, domain.ErrNotFound
	case domain.EntityTypeCampaign:
		c, err := s.sources.GetCampaign(ctx, req.SourceID)
		if err != nil {
			return domain.DelegationSource{}, err
		}
		if !actor.Is(c.OwnerAddress) {
			return domain.DelegationSource{}, domain.ErrUnauthorized
		}
		src := c.AsSource("")
		return src, src.Validate()
	}
	return domain.DelegationSource{}, fmt.Errorf("%w: unsupported delegation source type %q", domain.ErrInvalidRecord, req.SourceType)
}

// resolveDestination returns the destination and, for milestones, the cap
// on what it can still receive.
func (s *DelegationService) resolveDestination(ctx context.Context, src domain.DelegationSource, token domain.Token, req DelegationRequest) (domain.DelegationDestination, *money.Money, error) {
	switch req.DestinationType {
	case domain.EntityTypeMilestone:
		m, err := s.milestones.GetByID(ctx, req.DestinationID)
		if err != nil {
			return domain.DelegationDestination{}, nil, err
		}
		if src.Type == domain.EntityTypeCampaign && m.CampaignID != src.ID {
			return domain.DelegationDestination{}, nil, fmt.Errorf("%w: milestone %s is not part of campaign %s", domain.ErrInvalidRecord, m.ID, src.ID)
		}
		if !m.IsActive() {
			return domain.DelegationDestination{}, nil, &domain.TransitionError{
				Trigger: "delegate",
				From:    m.Status(),
				Reason:  "milestone does not accept delegations",
			}
		}
		if !m.Token.Same(token) {
			return domain.DelegationDestination{}, nil, fmt.Errorf("%w: milestone accepts %s only", domain.ErrTokenMismatch, m.Token.Symbol)
		}
		headroom := m.RemainingHeadroom()
		dest := m.Destination()
		if dest.ProjectID == "" {
			c, err := s.sources.GetCampaign(ctx, m.CampaignID)
			if err != nil {
				return domain.DelegationDestination{}, nil, err
			}
			dest.ProjectID = c.ProjectID
		}
		return dest, &headroom, dest.Validate()
	case domain.EntityTypeCampaign:
		if src.Type == domain.EntityTypeCampaign {
			return domain.DelegationDestination{}, nil, fmt.Errorf("%w: campaigns delegate to their milestones only", domain.ErrInvalidRecord)
		}
		c, err := s.sources.GetCampaign(ctx, req.DestinationID)
		if err != nil {
			return domain.DelegationDestination{}, nil, err
		}
		dest := c.AsDestination()
		return dest, nil, dest.Validate()
	}
	return domain.DelegationDestination{}, nil, fmt.Errorf("%w: unsupported delegation destination type %q", domain.ErrInvalidRecord, req.DestinationType)
}
