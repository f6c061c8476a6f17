package domain

import "fmt"

// MaxUploadBytes caps inline upload payloads.
const MaxUploadBytes = 20 << 20

// MaxCompositionRefs caps reference_composition inputs.
const MaxCompositionRefs = 6

// SubmitParams carries a generation request after decoding and before any job
// record exists. ImageData is only meaningful for upload_image; Locale is a
// hint for prompt text and is not persisted.
type SubmitParams struct {
	TenantID        string
	Mode            Mode
	Prompt          string
	SecondaryPrompt string
	SourceRefs      []SourceReference
	Output          OutputConfig
	EntityID        string
	ImageData       []byte
	Locale          string
}

type modeRules struct {
	needPrompt    bool
	needSecondary bool
	minRefs       int
	maxRefs       int
	needImageData bool
}

var rulesByMode = map[Mode]modeRules{
	ModeSourceImageToVideo:    {needPrompt: true, minRefs: 1, maxRefs: 1},
	ModeTextToVideo:           {needPrompt: true},
	ModeGeneratedImageToVideo: {needPrompt: true, needSecondary: true},
	ModeUploadImage:           {needImageData: true},
	ModeTextToImage:           {needPrompt: true},
	ModeReferenceComposition:  {needPrompt: true, minRefs: 1, maxRefs: MaxCompositionRefs},
}

var knownAspects = map[string]struct{}{
	"16:9": {}, "9:16": {}, "1:1": {}, "4:3": {}, "3:4": {},
}

// Validate enforces the per-mode required-field rules. It returns a
// *ValidationError describing the first violation, or nil.
func (p *SubmitParams) Validate() error {
	if p.TenantID == "" {
		return &ValidationError{Field: "tenant_id", Reason: "is required"}
	}
	if !p.Mode.Valid() {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", string(p.Mode))}
	}
	rules := rulesByMode[p.Mode]
	if rules.needPrompt && p.Prompt == "" {
		return &ValidationError{Field: "prompt", Reason: fmt.Sprintf("is required for mode %s", p.Mode)}
	}
	if rules.needSecondary && p.SecondaryPrompt == "" {
		return &ValidationError{Field: "secondary_prompt", Reason: fmt.Sprintf("is required for mode %s", p.Mode)}
	}
	if len(p.SourceRefs) < rules.minRefs {
		return &ValidationError{Field: "source_references", Reason: fmt.Sprintf("mode %s requires at least %d", p.Mode, rules.minRefs)}
	}
	if len(p.SourceRefs) > rules.maxRefs {
		if rules.maxRefs == 0 {
			return &ValidationError{Field: "source_references", Reason: fmt.Sprintf("must be empty for mode %s", p.Mode)}
		}
		return &ValidationError{Field: "source_references", Reason: fmt.Sprintf("mode %s allows at most %d", p.Mode, rules.maxRefs)}
	}
	for i, ref := range p.SourceRefs {
		if !ref.SourceType.Valid() {
			return &ValidationError{Field: "source_references", Reason: fmt.Sprintf("entry %d: unknown source type %q", i, string(ref.SourceType))}
		}
		if ref.ID == "" && ref.SourceType != SourceTypeLogo {
			return &ValidationError{Field: "source_references", Reason: fmt.Sprintf("entry %d: id is required", i)}
		}
	}
	if rules.needImageData && len(p.ImageData) == 0 {
		return &ValidationError{Field: "image_data", Reason: fmt.Sprintf("is required for mode %s", p.Mode)}
	}
	if !rules.needImageData && len(p.ImageData) > 0 {
		return &ValidationError{Field: "image_data", Reason: fmt.Sprintf("is not accepted for mode %s", p.Mode)}
	}
	if len(p.ImageData) > MaxUploadBytes {
		return &ValidationError{Field: "image_data", Reason: "exceeds maximum size"}
	}
	if p.Output.Width < 0 || p.Output.Height < 0 {
		return &ValidationError{Field: "output", Reason: "dimensions must be positive"}
	}
	if p.Output.AspectRatio != "" {
		if _, ok := knownAspects[p.Output.AspectRatio]; !ok {
			return &ValidationError{Field: "output", Reason: fmt.Sprintf("unsupported aspect ratio %q", p.Output.AspectRatio)}
		}
	}
	if p.Output.DurationSeconds < 0 || p.Output.DurationSeconds > 60 {
		return &ValidationError{Field: "output", Reason: "duration must be between 1 and 60 seconds"}
	}
	return nil
}
