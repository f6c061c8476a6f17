package domain

import "context"

// JobFilter narrows List results. TenantID is mandatory; zero values for the
// remaining fields mean "any".
type JobFilter struct {
	TenantID string
	Family   Family
	Status   JobStatus
	Mode     Mode
	EntityID string
	Limit    int
	Offset   int
}

// JobRepository defines persistence for generation jobs. Mutating calls that
// return a bool report whether a row actually changed: the SQL guards enforce
// the forward-only status machine, so a false return on a settled job is
// expected, not an error.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, tenantID, jobID string) (*GenerationJob, error)
	List(ctx context.Context, f JobFilter) ([]GenerationJob, int, error)
	Start(ctx context.Context, tenantID, jobID string) (bool, error)
	SetExternalJobID(ctx context.Context, tenantID, jobID, externalJobID string) error
	UpdateProgress(ctx context.Context, tenantID, jobID string, progress int) error
	IncrementRetry(ctx context.Context, tenantID, jobID string) error
	Complete(ctx context.Context, tenantID, jobID, assetKey, thumbnailKey string) (bool, error)
	Fail(ctx context.Context, tenantID, jobID, message string) (bool, error)
	Delete(ctx context.Context, tenantID, jobID string) (bool, error)
	ListUnsettled(ctx context.Context) ([]GenerationJob, error)
}

// AssetRepository persists rows describing stored artifacts.
type AssetRepository interface {
	SaveAll(ctx context.Context, assets []Asset) error
	ListByJobID(ctx context.Context, tenantID, jobID string) ([]Asset, error)
	GetByID(ctx context.Context, tenantID, assetID string) (*Asset, error)
	DeleteByJobID(ctx context.Context, tenantID, jobID string) error
}

// SourceLookup reads reference-image records from the entity tables owned by
// the CRUD layer. All lookups are tenant-scoped.
type SourceLookup interface {
	MenuItemImage(ctx context.Context, tenantID, id string) (*SourceRecord, error)
	MediaLibraryImage(ctx context.Context, tenantID, id string, origin MediaOrigin) (*SourceRecord, error)
	RestaurantLogo(ctx context.Context, tenantID, restaurantID string) (*SourceRecord, error)
}

// ObjectStore persists binary artifacts under tenant-scoped keys
// (tenantID/jobID/variant).
type ObjectStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context, prefix string) error
	URL(key string) string
}

// StatsRepository aggregates job counters.
type StatsRepository interface {
	Summary(ctx context.Context) (*GenerationStats, error)
}
