package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"mediagen/internal/domain"
	"mediagen/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	db DBTX
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(db DBTX) *AssetRepositoryPG {
	return &AssetRepositoryPG{db: db}
}

// SaveAll persists a list of asset rows.
func (r *AssetRepositoryPG) SaveAll(ctx context.Context, assets []domain.Asset) error {
	for _, asset := range assets {
		if _, err := r.db.Exec(ctx, sqlinline.QAssetInsert,
			asset.ID,
			asset.JobID,
			asset.TenantID,
			string(asset.Variant),
			asset.MIMEType,
			asset.SizeBytes,
			asset.StorageKey,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByJobID returns all assets belonging to the job, oldest first.
func (r *AssetRepositoryPG) ListByJobID(ctx context.Context, tenantID, jobID string) ([]domain.Asset, error) {
	rows, err := r.db.Query(ctx, sqlinline.QAssetListByJob, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetByID fetches one asset scoped to its owning tenant.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, tenantID, assetID string) (*domain.Asset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx, sqlinline.QAssetGet, tenantID, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// DeleteByJobID removes all asset rows of a job.
func (r *AssetRepositoryPG) DeleteByJobID(ctx context.Context, tenantID, jobID string) error {
	_, err := r.db.Exec(ctx, sqlinline.QAssetDeleteByJob, tenantID, jobID)
	return err
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var (
		asset   domain.Asset
		variant string
	)
	if err := row.Scan(
		&asset.ID,
		&asset.JobID,
		&asset.TenantID,
		&variant,
		&asset.MIMEType,
		&asset.SizeBytes,
		&asset.StorageKey,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	asset.Variant = domain.AssetVariant(variant)
	return &asset, nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
