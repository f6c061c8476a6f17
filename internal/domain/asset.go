package domain

import "time"

// AssetVariant enumerates the artifacts a job can persist.
type AssetVariant string

const (
	AssetVariantOutput       AssetVariant = "output"
	AssetVariantIntermediate AssetVariant = "intermediate"
	AssetVariantSource       AssetVariant = "source"
	AssetVariantThumbnail    AssetVariant = "thumbnail"
)

// Asset is one stored artifact belonging to a job.
type Asset struct {
	ID         string
	JobID      string
	TenantID   string
	Variant    AssetVariant
	MIMEType   string
	SizeBytes  int64
	StorageKey string
	CreatedAt  time.Time
}

// SourceRecord is the stored metadata for a reference image, resolved from
// one of the entity tables.
type SourceRecord struct {
	ID         string
	Name       string
	StorageKey string
	MIMEType   string
}

// MediaOrigin distinguishes how a media-library record was produced.
type MediaOrigin string

const (
	MediaOriginGenerated MediaOrigin = "generated"
	MediaOriginUploaded  MediaOrigin = "uploaded"
)

// GenerationStats aggregates job counters for the admin summary.
type GenerationStats struct {
	TotalJobs       int64
	Completed       int64
	Failed          int64
	InFlight        int64
	VideosCompleted int64
	ImagesCompleted int64
	CompletedLast24 int64
}
