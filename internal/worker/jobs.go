package worker

import (
	"context"

	"github.com/rs/zerolog"
)

// ChainPoller reconciles milestones whose transactions are still open.
type ChainPoller interface {
	PollChain(ctx context.Context, limit int) (int, error)
}

// CommitSweeper commits donations whose rejection window closed.
type CommitSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// PollChainJob asks the gateway about pending milestone transactions.
type PollChainJob struct {
	Poller ChainPoller
	Limit  int
	Log    zerolog.Logger
}

func (j PollChainJob) Name() string { return "poll_chain" }

func (j PollChainJob) Run(ctx context.Context) error {
	n, err := j.Poller.PollChain(ctx, j.Limit)
	if n > 0 {
		j.Log.Info().Int("milestones", n).Msg("chain poll applied updates")
	}
	return err
}

// SweepCommitsJob auto-commits expired delegations.
type SweepCommitsJob struct {
	Sweeper CommitSweeper
	Log     zerolog.Logger
}

func (j SweepCommitsJob) Name() string { return "sweep_commits" }

func (j SweepCommitsJob) Run(ctx context.Context) error {
	n, err := j.Sweeper.Sweep(ctx)
	if n > 0 {
		j.Log.Info().Int("donations", n).Msg("commit windows closed")
	}
	return err
}
