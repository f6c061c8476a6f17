// Package handlers exposes the generation API over HTTP. Handlers stay thin:
// they decode, delegate to the orchestrator and repositories, and translate
// domain errors into the wire error shape.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/middleware"
)

// GenerationService is the orchestrator surface the handlers drive.
type GenerationService interface {
	Submit(ctx context.Context, params domain.SubmitParams) (*domain.GenerationJob, error)
	GetStatus(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error)
	ForceRefresh(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error)
	List(ctx context.Context, f domain.JobFilter) ([]domain.GenerationJob, int, error)
	Delete(ctx context.Context, tenantID, jobID string) error
}

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Service    GenerationService
	Assets     domain.AssetRepository
	Store      domain.ObjectStore
	Stats      domain.StatsRepository
	DB         Pinger
	Logger     infra.Logger
	StatsToken string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func (a *App) validationError(w http.ResponseWriter, field, reason string) {
	a.json(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{"code": "validation", "message": reason, "field": field},
	})
}

// writeDomainError maps domain failures onto the wire taxonomy. Anything
// unrecognized is reported opaquely; details go to the log only.
func (a *App) writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		a.validationError(w, ve.Field, ve.Reason)
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, domain.ErrInvalidSourceType), errors.Is(err, domain.ErrSourceTypeMismatch):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "not allowed")
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentTenantID(r *http.Request) string {
	return middleware.TenantIDFromContext(r.Context())
}

// jobView renders a job for status and list responses. Asset keys are
// translated to resolvable URLs; empty optional fields are omitted.
func (a *App) jobView(job *domain.GenerationJob) map[string]any {
	view := map[string]any{
		"id":          job.ID,
		"mode":        job.Mode,
		"family":      job.Mode.Family(),
		"status":      job.Status,
		"progress":    job.Progress,
		"retry_count": job.RetryCount,
		"output":      job.Output,
		"created_at":  job.CreatedAt,
		"updated_at":  job.UpdatedAt,
	}
	if job.Prompt != "" {
		view["prompt"] = job.Prompt
	}
	if job.SecondaryPrompt != "" {
		view["secondary_prompt"] = job.SecondaryPrompt
	}
	if len(job.SourceRefs) > 0 {
		view["source_references"] = job.SourceRefs
	}
	if job.EntityID != "" {
		view["entity_id"] = job.EntityID
	}
	if job.ExternalJobID != "" {
		view["external_job_id"] = job.ExternalJobID
	}
	if job.GeneratedAssetKey != "" {
		view["asset_url"] = a.Store.URL(job.GeneratedAssetKey)
	}
	if job.ThumbnailKey != "" {
		view["thumbnail_url"] = a.Store.URL(job.ThumbnailKey)
	}
	if job.ErrorMessage != "" {
		view["error_message"] = job.ErrorMessage
	}
	if job.CompletedAt != nil {
		view["completed_at"] = job.CompletedAt
	}
	return view
}
