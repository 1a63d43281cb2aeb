// Package credentials keeps chain gateway secrets in the integration_tokens
// table so they can be rotated without a redeploy.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fundhub/internal/infra"
	"fundhub/internal/sqlinline"
)

const (
	ProviderChainGateway = "chain_gateway"
	ProviderChainWebhook = "chain_webhook"
)

// ErrUnknownProvider is returned for secrets this service does not keep.
var ErrUnknownProvider = errors.New("unknown credentials provider")

type Store struct {
	sql     infra.SQLExecutor
	network string
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// WithNetwork makes the store ignore gateway keys stored for another
// network. Keys stored without a network match every network.
func (s *Store) WithNetwork(network string) *Store {
	s.network = strings.TrimSpace(network)
	return s
}

func (s *Store) ChainGatewayAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderChainGateway)
}

func (s *Store) ChainWebhookSecret(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderChainWebhook)
}

// Token returns the stored secret for provider, or "" when none is stored
// for the configured network.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if err := checkProvider(provider); err != nil {
		return "", err
	}
	var token, network string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectChainSecret, provider).Scan(&token, &network); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	if provider == ProviderChainGateway && s.network != "" && network != "" && !strings.EqualFold(network, s.network) {
		return "", nil
	}
	return strings.TrimSpace(token), nil
}

// SetChainGatewayAPIKey stores the gateway key along with the network it is
// valid for.
func (s *Store) SetChainGatewayAPIKey(ctx context.Context, key, network string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("chain gateway api key is required")
	}
	props := map[string]any{}
	if network = strings.TrimSpace(network); network != "" {
		props["network"] = network
	}
	return s.upsert(ctx, ProviderChainGateway, key, props)
}

func (s *Store) SetChainWebhookSecret(ctx context.Context, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("chain webhook secret is required")
	}
	return s.upsert(ctx, ProviderChainWebhook, secret, nil)
}

// Resolve prefers a stored token and falls back to the configured value.
func (s *Store) Resolve(ctx context.Context, provider, fallback string) (string, error) {
	token, err := s.Token(ctx, provider)
	if err != nil {
		return "", err
	}
	if token == "" {
		return strings.TrimSpace(fallback), nil
	}
	return token, nil
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertChainSecret, provider, token, raw)
	return err
}

func checkProvider(provider string) error {
	switch provider {
	case ProviderChainGateway, ProviderChainWebhook:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
}
