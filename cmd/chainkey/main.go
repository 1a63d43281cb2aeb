package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"fundhub/internal/infra"
	"fundhub/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
		networkFlag  string
	)
	flag.StringVar(&keyFlag, "key", "", "secret to store (fallbacks to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderChainGateway, "secret to configure (chain_gateway or chain_webhook)")
	flag.StringVar(&networkFlag, "network", os.Getenv("NETWORK_NAME"), "network the gateway key is valid for")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	switch provider {
	case credentials.ProviderChainGateway, credentials.ProviderChainWebhook:
	case "":
		provider = credentials.ProviderChainGateway
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		switch provider {
		case credentials.ProviderChainWebhook:
			key = strings.TrimSpace(os.Getenv("CHAIN_WEBHOOK_SECRET"))
		default:
			key = strings.TrimSpace(os.Getenv("CHAIN_GATEWAY_API_KEY"))
		}
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s secret is required via -key or environment\n", provider)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "chainkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	var persistErr error
	switch provider {
	case credentials.ProviderChainWebhook:
		persistErr = store.SetChainWebhookSecret(ctxExec, key)
	default:
		persistErr = store.SetChainGatewayAPIKey(ctxExec, key, networkFlag)
	}
	if persistErr != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s secret: %v\n", provider, persistErr)
		os.Exit(1)
	}

	fmt.Printf("%s secret stored successfully\n", provider)
}
