package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundhub/internal/adapter/repo"
	"fundhub/internal/chain"
	"fundhub/internal/infra"
	"fundhub/internal/infra/credentials"
	"fundhub/internal/service"
	"fundhub/internal/worker"
)

// Webhook deliveries can be lost; the poll makes confirmations converge.
const pollLimit = 50

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	apiKey, err := credentials.NewStore(runner).WithNetwork(cfg.NetworkName).Resolve(ctx, credentials.ProviderChainGateway, cfg.ChainGatewayAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load chain gateway key from store")
		apiKey = cfg.ChainGatewayAPIKey
	}
	chainClient, err := chain.NewHTTPClient(chain.Options{
		APIKey:      apiKey,
		BaseURL:     cfg.ChainGatewayURL,
		ExplorerURL: cfg.ChainExplorerURL,
		Logger:      &logger,
		MaxElapsed:  30 * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure chain gateway client")
	}

	milestones := service.NewMilestoneService(service.MilestoneServiceOptions{
		Repo:   repo.NewMilestoneRepository(runner).WithRequiredConfirmations(cfg.RequiredConfirmations),
		Chain:  chainClient,
		TxLink: chainClient.TxLink,
		Logger: logger,
	})
	sweeper := service.NewCommitSweeper(repo.NewDonationRepository(runner), cfg.DelegationBatchSize, logger)

	sched := worker.New(ctx, 2*time.Minute, logger)
	jobs := []worker.Job{
		worker.PollChainJob{Poller: milestones, Limit: pollLimit, Log: logger},
		worker.SweepCommitsJob{Sweeper: sweeper, Log: logger},
	}
	for _, job := range jobs {
		if err := sched.AddJob(cfg.WorkerSchedule, job); err != nil {
			logger.Fatal().Err(err).Msg("worker: invalid schedule")
		}
	}

	sched.Start()
	<-ctx.Done()
	sched.Stop()
	logger.Info().Msg("worker: stopped")
}
