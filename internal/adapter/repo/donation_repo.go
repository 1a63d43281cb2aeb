package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"fundhub/internal/domain"
	"fundhub/internal/infra"
	"fundhub/internal/money"
	"fundhub/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// ListForDelegation returns the oldest donations matching q.
func (r *DonationRepositoryPG) ListForDelegation(ctx context.Context, q domain.DonationQuery) ([]domain.Donation, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultDelegationBatch
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsForDelegation,
		string(q.Status),
		q.TokenSymbol,
		q.OwnerID,
		q.OwnerTypeID,
		q.DelegateID,
		q.DelegateTypeID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// GetByID fetches a donation by its identifier.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListCommitExpired returns delegated donations whose commit window closed
// at or before now.
func (r *DonationRepositoryPG) ListCommitExpired(ctx context.Context, now time.Time, limit int) ([]domain.Donation, error) {
	if limit <= 0 {
		limit = domain.DefaultDelegationBatch
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListCommitExpiredDonations, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return collectDonations(rows)
}

// MarkCommitted moves a waiting donation to Committed. Donations in any
// other status are reported as not found.
func (r *DonationRepositoryPG) MarkCommitted(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkDonationCommitted, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectDonations(rows pgx.Rows) ([]domain.Donation, error) {
	defer rows.Close()

	items := []domain.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDonation(row pgx.Row) (domain.Donation, error) {
	var (
		rec      domain.DonationRecord
		amount   string
		status   string
		owner    string
		decimals int
	)
	if err := row.Scan(
		&rec.ID,
		&amount,
		&rec.Token.Symbol,
		&rec.Token.Address,
		&decimals,
		&rec.OwnerID,
		&rec.OwnerTypeID,
		&owner,
		&rec.DelegateID,
		&rec.DelegateTypeID,
		&status,
		&rec.GiverAddress,
		&rec.CreatedAt,
		&rec.CommitTime,
	); err != nil {
		return domain.Donation{}, err
	}
	rec.Token = rec.Token.WithDecimals(decimals)
	remaining, err := money.FromDecimalString(amount)
	if err != nil {
		return domain.Donation{}, err
	}
	rec.AmountRemaining = remaining
	rec.Status = domain.DonationStatus(status)
	rec.OwnerType = domain.EntityType(owner)
	return domain.NewDonation(rec)
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
