package domain

import "time"

// Mode enumerates the generation strategies a job can run.
type Mode string

const (
	ModeSourceImageToVideo    Mode = "source_image_to_video"
	ModeTextToVideo           Mode = "text_to_video"
	ModeGeneratedImageToVideo Mode = "generated_image_to_video"
	ModeUploadImage           Mode = "upload_image"
	ModeTextToImage           Mode = "text_to_image"
	ModeReferenceComposition  Mode = "reference_composition"
)

// Valid reports whether the mode belongs to the closed enumeration.
func (m Mode) Valid() bool {
	switch m {
	case ModeSourceImageToVideo, ModeTextToVideo, ModeGeneratedImageToVideo,
		ModeUploadImage, ModeTextToImage, ModeReferenceComposition:
		return true
	}
	return false
}

// Family groups modes by the media type they ultimately produce.
type Family string

const (
	FamilyVideo Family = "video"
	FamilyImage Family = "image"
)

// Family returns the media family the mode produces.
func (m Mode) Family() Family {
	switch m {
	case ModeSourceImageToVideo, ModeTextToVideo, ModeGeneratedImageToVideo:
		return FamilyVideo
	default:
		return FamilyImage
	}
}

// JobStatus enumerates job lifecycle states. Transitions are strictly
// forward: queued -> in_progress -> completed|failed.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SourceType enumerates the origins a reference image can be fetched from.
type SourceType string

const (
	SourceTypeMenu        SourceType = "menu"
	SourceTypeAIGenerated SourceType = "ai-generated"
	SourceTypeUploaded    SourceType = "uploaded"
	SourceTypeLogo        SourceType = "logo"
)

// Valid reports whether the source type belongs to the closed set.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeMenu, SourceTypeAIGenerated, SourceTypeUploaded, SourceTypeLogo:
		return true
	}
	return false
}

// SourceReference identifies one reference image by origin.
type SourceReference struct {
	ID         string     `json:"id"`
	SourceType SourceType `json:"source_type"`
}

// OutputConfig carries the requested output dimensions for a job.
type OutputConfig struct {
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// WithDefaults fills missing dimensions from the aspect ratio and the
// family's defaults. Explicit width/height always win.
func (c OutputConfig) WithDefaults(family Family) OutputConfig {
	out := c
	if out.AspectRatio == "" {
		if family == FamilyVideo {
			out.AspectRatio = "16:9"
		} else {
			out.AspectRatio = "1:1"
		}
	}
	if out.Width <= 0 || out.Height <= 0 {
		out.Width, out.Height = dimensionsForAspect(out.AspectRatio, family)
	}
	if family == FamilyVideo && out.DurationSeconds <= 0 {
		out.DurationSeconds = 8
	}
	return out
}

func dimensionsForAspect(aspect string, family Family) (int, int) {
	switch aspect {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:3":
		return 1152, 864
	case "3:4":
		return 864, 1152
	case "1:1":
		return 1024, 1024
	}
	if family == FamilyVideo {
		return 1280, 720
	}
	return 1024, 1024
}

// GenerationJob is the central entity: one asynchronous media-generation
// request owned by a tenant.
type GenerationJob struct {
	ID                string
	TenantID          string
	Mode              Mode
	Status            JobStatus
	Prompt            string
	SecondaryPrompt   string
	SourceRefs        []SourceReference
	Output            OutputConfig
	EntityID          string
	ExternalJobID     string
	Progress          int
	RetryCount        int
	GeneratedAssetKey string
	ThumbnailKey      string
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}
