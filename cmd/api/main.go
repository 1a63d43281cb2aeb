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
	"fundhub/internal/domain/jsoncfg"
	"fundhub/internal/feed"
	"fundhub/internal/http/handlers"
	httpapi "fundhub/internal/http/httpapi"
	"fundhub/internal/infra"
	"fundhub/internal/infra/credentials"
	"fundhub/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	whitelist, err := jsoncfg.Load(cfg.WhitelistPath, cfg.NetworkName)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.WhitelistPath).Msg("failed to load whitelist")
	}

	credStore := credentials.NewStore(runner).WithNetwork(cfg.NetworkName)
	apiKey, err := credStore.Resolve(ctx, credentials.ProviderChainGateway, cfg.ChainGatewayAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load chain gateway key from store")
		apiKey = cfg.ChainGatewayAPIKey
	}
	if secret, err := credStore.Resolve(ctx, credentials.ProviderChainWebhook, cfg.ChainWebhookSecret); err != nil {
		logger.Warn().Err(err).Msg("failed to load chain webhook secret from store")
	} else {
		cfg.ChainWebhookSecret = secret
	}

	chainClient, err := chain.NewHTTPClient(chain.Options{
		APIKey:      apiKey,
		BaseURL:     cfg.ChainGatewayURL,
		ExplorerURL: cfg.ChainExplorerURL,
		Logger:      &logger,
		MaxElapsed:  30 * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure chain gateway client")
	}
	if !chainClient.HasCredentials() {
		logger.Warn().Msg("chain gateway api key missing, on-chain actions will fail")
	}

	milestones := repo.NewMilestoneRepository(runner).WithRequiredConfirmations(cfg.RequiredConfirmations)
	donations := repo.NewDonationRepository(runner)
	sources := repo.NewSourceRepository(runner)

	hub := feed.NewHub(feed.DefaultBuffer)

	app := &handlers.App{
		Milestones: service.NewMilestoneService(service.MilestoneServiceOptions{
			Repo:   milestones,
			Chain:  chainClient,
			Feed:   hub,
			TxLink: chainClient.TxLink,
			Logger: logger,
		}),
		Delegations: service.NewDelegationService(service.DelegationServiceOptions{
			Donations:  donations,
			Sources:    sources,
			Milestones: milestones,
			Chain:      chainClient,
			Whitelist:  whitelist,
			BatchSize:  cfg.DelegationBatchSize,
			Logger:     logger,
		}),
		Whitelist:   whitelist,
		Feed:        hub,
		DB:          dbpool,
		Logger:      logger,
		FeedOrigins: handlers.FeedOriginPatterns(cfg.CORSAllowedOrigins),
	}

	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)
	// Feed connections are hijacked, so Shutdown alone would wait on them.
	server.OnShutdown(hub.Close)

	go func() {
		logger.Info().Str("network", cfg.NetworkName).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
