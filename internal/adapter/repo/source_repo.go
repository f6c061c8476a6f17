package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mediagen/internal/domain"
	"mediagen/internal/sqlinline"
)

// SourceLookupPG implements domain.SourceLookup over the entity tables owned
// by the CRUD layer (menu_items, media_library, restaurants).
type SourceLookupPG struct {
	db DBTX
}

// NewSourceLookup constructs the lookup.
func NewSourceLookup(db DBTX) *SourceLookupPG {
	return &SourceLookupPG{db: db}
}

// MenuItemImage returns the stored image record of a menu item.
func (r *SourceLookupPG) MenuItemImage(ctx context.Context, tenantID, id string) (*domain.SourceRecord, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSourceMenuItemImage, tenantID, id)
	var rec domain.SourceRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.StorageKey, &rec.MIMEType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if rec.StorageKey == "" {
		// The menu item exists but has no photo attached.
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// MediaLibraryImage returns a generation-history record, enforcing that its
// stored origin matches the requested one. An origin mismatch is a distinct
// failure from a missing record.
func (r *SourceLookupPG) MediaLibraryImage(ctx context.Context, tenantID, id string, origin domain.MediaOrigin) (*domain.SourceRecord, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSourceMediaLibraryImage, tenantID, id)
	var (
		rec          domain.SourceRecord
		storedOrigin string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.StorageKey, &rec.MIMEType, &storedOrigin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if domain.MediaOrigin(storedOrigin) != origin {
		return nil, fmt.Errorf("media %s has origin %s, not %s: %w", id, storedOrigin, origin, domain.ErrSourceTypeMismatch)
	}
	return &rec, nil
}

// RestaurantLogo returns the tenant's brand logo record. Requests for another
// restaurant's logo are NotFound, like any other cross-tenant read.
func (r *SourceLookupPG) RestaurantLogo(ctx context.Context, tenantID, restaurantID string) (*domain.SourceRecord, error) {
	if restaurantID != tenantID {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRow(ctx, sqlinline.QSourceRestaurantLogo, restaurantID)
	var rec domain.SourceRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.StorageKey, &rec.MIMEType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if rec.StorageKey == "" {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

var _ domain.SourceLookup = (*SourceLookupPG)(nil)
