package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundhub/internal/domain"
	"fundhub/internal/infra"
)

// CommitSweeper commits delegated donations whose rejection window closed.
type CommitSweeper struct {
	donations domain.DonationRepository
	batch     int
	log       infra.Logger
	now       func() time.Time
}

func NewCommitSweeper(donations domain.DonationRepository, batch int, logger infra.Logger) *CommitSweeper {
	if batch <= 0 {
		batch = domain.DefaultDelegationBatch
	}
	return &CommitSweeper{
		donations: donations,
		batch:     batch,
		log:       logger.With().Str("component", "commit_sweeper").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sweep commits one batch of expired delegations and returns how many it
// committed. Donations another process already moved are skipped.
func (s *CommitSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	items, err := s.donations.ListCommitExpired(ctx, now, s.batch)
	if err != nil {
		return 0, err
	}
	committed := 0
	var errs []error
	for _, d := range items {
		if d.AwaitingCommit(now) {
			continue
		}
		if err := s.donations.MarkCommitted(ctx, d.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("donation %s: %w", d.ID, err))
			continue
		}
		committed++
		s.log.Info().Str("donation_id", d.ID).Msg("delegation committed")
	}
	return committed, errors.Join(errs...)
}
