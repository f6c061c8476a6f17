// Package resolver turns source references (menu item, media-library record,
// restaurant logo) into raw image bytes ready for conditioning a synthesis
// call.
package resolver

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"mediagen/internal/domain"
)

// ResolvedImage is one fetched reference image.
type ResolvedImage struct {
	Data     []byte
	Key      string
	URL      string
	MIMEType string
	Name     string
}

// Resolver looks up reference records through the entity tables and reads
// their bytes from the object store.
type Resolver struct {
	sources domain.SourceLookup
	store   domain.ObjectStore
}

func New(sources domain.SourceLookup, store domain.ObjectStore) *Resolver {
	return &Resolver{sources: sources, store: store}
}

// Fetch resolves a single reference. Logo references may omit the id, in
// which case the tenant's own restaurant is used.
func (r *Resolver) Fetch(ctx context.Context, tenantID string, ref domain.SourceReference) (*ResolvedImage, error) {
	record, err := r.lookup(ctx, tenantID, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s reference %q: %w", ref.SourceType, ref.ID, err)
	}
	data, err := r.store.Read(ctx, record.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("resolve %s reference %q: read %s: %w", ref.SourceType, ref.ID, record.StorageKey, err)
	}
	mime := record.MIMEType
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &ResolvedImage{
		Data:     data,
		Key:      record.StorageKey,
		URL:      r.store.URL(record.StorageKey),
		MIMEType: mime,
		Name:     record.Name,
	}, nil
}

// FetchMany resolves every reference concurrently, preserving input order.
// One failure fails the whole batch.
func (r *Resolver) FetchMany(ctx context.Context, tenantID string, refs []domain.SourceReference) ([]ResolvedImage, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	results := make([]ResolvedImage, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			resolved, err := r.Fetch(gctx, tenantID, ref)
			if err != nil {
				return err
			}
			results[i] = *resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) lookup(ctx context.Context, tenantID string, ref domain.SourceReference) (*domain.SourceRecord, error) {
	switch ref.SourceType {
	case domain.SourceTypeMenu:
		return r.sources.MenuItemImage(ctx, tenantID, ref.ID)
	case domain.SourceTypeAIGenerated:
		return r.sources.MediaLibraryImage(ctx, tenantID, ref.ID, domain.MediaOriginGenerated)
	case domain.SourceTypeUploaded:
		return r.sources.MediaLibraryImage(ctx, tenantID, ref.ID, domain.MediaOriginUploaded)
	case domain.SourceTypeLogo:
		restaurantID := ref.ID
		if restaurantID == "" {
			restaurantID = tenantID
		}
		return r.sources.RestaurantLogo(ctx, tenantID, restaurantID)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSourceType, string(ref.SourceType))
}
