package repo

import (
	"context"

	"fundhub/internal/domain"
	"fundhub/internal/infra"
	"fundhub/internal/sqlinline"
)

// SourceRepositoryPG implements domain.DelegationSourceRepository.
type SourceRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSourceRepository(sql infra.SQLExecutor) *SourceRepositoryPG {
	return &SourceRepositoryPG{sql: sql}
}

// ListDACsByOwner returns the DACs the address manages.
func (r *SourceRepositoryPG) ListDACsByOwner(ctx context.Context, ownerAddress string) ([]domain.DelegationSource, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDACsByOwner, ownerAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.DelegationSource{}
	for rows.Next() {
		src := domain.DelegationSource{Type: domain.EntityTypeDAC}
		if err := rows.Scan(&src.ID, &src.Name, &src.OwnerAddress, &src.DelegateID); err != nil {
			return nil, err
		}
		items = append(items, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetCampaign fetches a campaign by its identifier.
func (r *SourceRepositoryPG) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	row := r.sql.QueryRow(ctx, sqlinline.QSelectCampaignByID, id)
	if err := row.Scan(&c.ID, &c.Title, &c.ProjectID, &c.OwnerAddress, &c.ReviewerAddress); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ domain.DelegationSourceRepository = (*SourceRepositoryPG)(nil)
