package infra

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REQUIRED_CONFIRMATIONS", "")
	t.Setenv("DELEGATION_BATCH_SIZE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("CHAIN_GATEWAY_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RequiredConfirmations != 6 {
		t.Fatalf("RequiredConfirmations = %d, want 6", cfg.RequiredConfirmations)
	}
	if cfg.DelegationBatchSize != 100 {
		t.Fatalf("DelegationBatchSize = %d, want 100", cfg.DelegationBatchSize)
	}
	if cfg.WorkerSchedule != "@every 15s" {
		t.Fatalf("WorkerSchedule = %q", cfg.WorkerSchedule)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3010" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadConfigRejectsNegativeConfirmations(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REQUIRED_CONFIRMATIONS", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative confirmations")
	}
}

func TestLoadConfigClampsBatchSize(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DELEGATION_BATCH_SIZE", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DelegationBatchSize != 100 {
		t.Fatalf("DelegationBatchSize = %d, want 100", cfg.DelegationBatchSize)
	}
}

func TestLoadConfigMergesOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://app.example.com ,http://localhost:3010")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://app.example.com", "http://localhost:3010"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestExplorerTxURL(t *testing.T) {
	cfg := &Config{ChainExplorerURL: "https://explorer/tx/"}
	if got := cfg.ExplorerTxURL("0xabc"); got != "https://explorer/tx/0xabc" {
		t.Fatalf("ExplorerTxURL = %q", got)
	}
	if got := cfg.ExplorerTxURL(""); got != "" {
		t.Fatalf("ExplorerTxURL for empty hash = %q", got)
	}
}
