package image

import "context"

// Terminal failure codes the backend reports for rejected generations.
const (
	CodeContentPolicy = "content_policy_violation"
	CodeInvalidPrompt = "invalid_prompt"
)

// GenerateRequest carries one synchronous image synthesis call. Reference
// images condition the composition and arrive in caller order; the backend
// treats earlier entries as more authoritative.
type GenerateRequest struct {
	Prompt          string
	ReferenceImages [][]byte
	AspectRatio     string
}

// Result is one produced image.
type Result struct {
	Data     []byte
	MIMEType string
}

// Synthesizer is the contract the orchestrator holds on a remote
// image-generation backend. Generation is synchronous: the call blocks until
// the backend has produced the image or rejected the request.
type Synthesizer interface {
	Generate(ctx context.Context, req GenerateRequest) (Result, error)
}
