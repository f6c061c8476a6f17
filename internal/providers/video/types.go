package video

import "context"

// State enumerates the remote-side lifecycle of a submitted synthesis job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the state is final on the backend.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Failure codes the backend reports that polling can never recover from.
const (
	CodeContentPolicy = "content_policy_violation"
	CodeInvalidPrompt = "invalid_prompt"
)

// Asset variants DownloadAsset accepts.
const (
	VariantOutput    = "output"
	VariantThumbnail = "thumbnail"
)

// SubmitRequest carries one video generation submission. ImageData is the
// optional conditioning frame; when present it has already been sized to the
// requested output dimensions.
type SubmitRequest struct {
	Prompt          string
	ImageData       []byte
	ImageMIME       string
	Width           int
	Height          int
	DurationSeconds int
	AspectRatio     string
}

// Status is a point-in-time report for a submitted job.
type Status struct {
	State    State
	Progress int
	Code     string
	Message  string
}

// IsTerminal reports whether the status needs no further polling.
func (s Status) IsTerminal() bool {
	return s.State.IsTerminal()
}

// Synthesizer is the narrow contract the orchestrator holds on a remote
// video-generation backend: submit, poll, download.
type Synthesizer interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	CheckStatus(ctx context.Context, externalID string) (Status, error)
	DownloadAsset(ctx context.Context, externalID, variant string) ([]byte, string, error)
}
