package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"fundhub/internal/adapter/repo"
	"fundhub/internal/domain"
	"fundhub/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		idFlag     string
		importFlag string
		required   int
	)
	flag.StringVar(&idFlag, "id", "", "milestone ID to print (UUID)")
	flag.StringVar(&importFlag, "import", "", "path to a milestone record JSON to insert or replace")
	flag.IntVar(&required, "required-confirmations", domain.DefaultRequiredConfirmations, "confirmations assumed for records that carry none")
	flag.Parse()

	id := strings.TrimSpace(idFlag)
	path := strings.TrimSpace(importFlag)
	if id == "" && path == "" {
		exitWithError(errors.New("either -id or -import must be provided"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "milestonectl").Logger()
	milestones := repo.NewMilestoneRepository(infra.NewSQLRunner(pool, logger)).WithRequiredConfirmations(required)

	if path != "" {
		m, err := importRecord(ctx, milestones, path)
		if err != nil {
			exitWithError(err)
		}
		id = m.ID
		fmt.Printf("Milestone %s stored with status %s\n", m.ID, m.Status())
	}

	m, err := milestones.GetByID(ctx, id)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load milestone %s: %w", id, err))
	}
	out, err := json.MarshalIndent(m.Record(""), "", "  ")
	if err != nil {
		exitWithError(fmt.Errorf("failed to encode milestone: %w", err))
	}
	fmt.Println(string(out))
}

// importRecord replaces a stored milestone with the snapshot in path, or
// inserts it when no milestone with that id exists yet.
func importRecord(ctx context.Context, milestones *repo.MilestoneRepositoryPG, path string) (*domain.Milestone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rec domain.MilestoneRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	var m *domain.Milestone
	if rec.ID != "" {
		existing, err := milestones.GetByID(ctx, rec.ID)
		switch {
		case err == nil:
			if err := existing.ApplySnapshot(rec); err != nil {
				return nil, fmt.Errorf("snapshot rejected: %w", err)
			}
			m = existing
		case errors.Is(err, domain.ErrNotFound):
		default:
			return nil, err
		}
	}
	if m == nil {
		if m, err = domain.NewMilestone(rec); err != nil {
			return nil, fmt.Errorf("record rejected: %w", err)
		}
	}
	if err := milestones.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save milestone: %w", err)
	}
	return m, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
