package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fundhub/internal/domain"
	"fundhub/internal/infra"
	"fundhub/internal/sqlinline"
)

// MilestoneRepositoryPG implements domain.MilestoneRepository. The full
// record lives in a jsonb column; status and chain fields are mirrored into
// columns for the worker queries.
type MilestoneRepositoryPG struct {
	sql      infra.SQLExecutor
	required *int
}

// NewMilestoneRepository creates a milestone repository backed by PostgreSQL.
func NewMilestoneRepository(sql infra.SQLExecutor) *MilestoneRepositoryPG {
	return &MilestoneRepositoryPG{sql: sql}
}

// WithRequiredConfirmations sets the confirmation depth applied to records
// that do not carry their own.
func (r *MilestoneRepositoryPG) WithRequiredConfirmations(n int) *MilestoneRepositoryPG {
	r.required = &n
	return r
}

// GetByID fetches a milestone by its identifier.
func (r *MilestoneRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	var (
		rowID string
		raw   []byte
	)
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectMilestoneByID, id).Scan(&rowID, &raw); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.decode(rowID, raw)
}

// Save inserts or replaces the milestone. New milestones get a UUID.
func (r *MilestoneRepositoryPG) Save(ctx context.Context, m *domain.Milestone) error {
	if m == nil {
		return errors.New("milestone is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	raw, err := json.Marshal(m.Record(""))
	if err != nil {
		return fmt.Errorf("encode milestone %s: %w", m.ID, err)
	}
	var pendingTx string
	if p := m.Pending(); p != nil {
		pendingTx = p.TxHash
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertMilestone,
		m.ID,
		m.CampaignID,
		string(m.Status()),
		m.Mined(),
		m.Confirmations(),
		m.Deleted(),
		pendingTx,
		raw,
	)
	return err
}

// ListAwaitingChain returns milestones the worker still has to reconcile
// with the chain, least recently touched first.
func (r *MilestoneRepositoryPG) ListAwaitingChain(ctx context.Context, limit int) ([]*domain.Milestone, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListMilestonesAwaitingChain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Milestone
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		m, err := r.decode(id, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MilestoneRepositoryPG) decode(id string, raw []byte) (*domain.Milestone, error) {
	var rec domain.MilestoneRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: milestone %s: %v", domain.ErrInvalidRecord, id, err)
	}
	rec.ID = id
	if rec.RequiredConfirmations == nil && r.required != nil {
		n := *r.required
		rec.RequiredConfirmations = &n
	}
	return domain.NewMilestone(rec)
}

var _ domain.MilestoneRepository = (*MilestoneRepositoryPG)(nil)
