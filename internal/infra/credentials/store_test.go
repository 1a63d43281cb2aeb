package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token   string
	network string
	err     error
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{token: s.token, network: s.network, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token   string
	network string
	err     error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 2 {
		return errors.New("expected token and network")
	}
	token, ok := dest[0].(*string)
	network, ok2 := dest[1].(*string)
	if !ok || !ok2 {
		return errors.New("invalid dest")
	}
	*token = r.token
	*network = r.network
	return nil
}

func TestChainGatewayAPIKey(t *testing.T) {
	store := NewStore(&stubExecutor{token: " abc123 "})
	key, err := store.ChainGatewayAPIKey(context.Background())
	if err != nil {
		t.Fatalf("ChainGatewayAPIKey error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
}

func TestChainGatewayAPIKey_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.ChainGatewayAPIKey(context.Background())
	if err != nil {
		t.Fatalf("ChainGatewayAPIKey error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestChainGatewayAPIKey_Error(t *testing.T) {
	store := NewStore(&stubExecutor{err: errors.New("down")})
	if _, err := store.ChainGatewayAPIKey(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetChainGatewayAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetChainGatewayAPIKey(context.Background(), "secret", "Rinkeby"); err != nil {
		t.Fatalf("SetChainGatewayAPIKey error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderChainGateway {
		t.Fatalf("expected provider argument, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	var props map[string]string
	if err := json.Unmarshal(exec.exec.args[2].([]byte), &props); err != nil {
		t.Fatalf("properties not json: %v", err)
	}
	if props["network"] != "Rinkeby" {
		t.Fatalf("expected network property, got %v", props)
	}
}

func TestSetChainGatewayAPIKeyEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetChainGatewayAPIKey(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSetChainWebhookSecretEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetChainWebhookSecret(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestResolveFallsBack(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	got, err := store.Resolve(context.Background(), ProviderChainWebhook, " from-env ")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected fallback, got %q", got)
	}

	store = NewStore(&stubExecutor{token: "stored"})
	got, err = store.Resolve(context.Background(), ProviderChainWebhook, "from-env")
	if err != nil || got != "stored" {
		t.Fatalf("expected stored token, got %q %v", got, err)
	}
}

func TestGatewayKeyScopedToNetwork(t *testing.T) {
	store := NewStore(&stubExecutor{token: "k", network: "Mainnet"}).WithNetwork("rinkeby")
	got, err := store.Resolve(context.Background(), ProviderChainGateway, "from-env")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected key for another network to be ignored, got %q", got)
	}

	store = NewStore(&stubExecutor{token: "k", network: "Rinkeby"}).WithNetwork("rinkeby")
	if got, _ := store.ChainGatewayAPIKey(context.Background()); got != "k" {
		t.Fatalf("expected matching network key, got %q", got)
	}

	store = NewStore(&stubExecutor{token: "k"}).WithNetwork("rinkeby")
	if got, _ := store.ChainGatewayAPIKey(context.Background()); got != "k" {
		t.Fatalf("expected key without network to match, got %q", got)
	}
}

func TestUnknownProvider(t *testing.T) {
	store := NewStore(&stubExecutor{token: "k"})
	if _, err := store.Token(context.Background(), "gemini"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}
