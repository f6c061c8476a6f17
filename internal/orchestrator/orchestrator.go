// Package orchestrator drives asynchronous media-generation jobs: submit
// validates and persists, mode pipelines resolve references and call the
// synthesis backends, and per-job pollers carry video jobs to completion.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/providers/image"
	"mediagen/internal/providers/video"
	"mediagen/internal/resolver"
)

// SourceResolver fetches reference images for conditioning.
type SourceResolver interface {
	Fetch(ctx context.Context, tenantID string, ref domain.SourceReference) (*resolver.ResolvedImage, error)
	FetchMany(ctx context.Context, tenantID string, refs []domain.SourceReference) ([]resolver.ResolvedImage, error)
}

// Config bounds the poller and storage retries.
type Config struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	StorageRetries  int
	RetryBackoff    time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.PollMaxAttempts <= 0 {
		c.PollMaxAttempts = 360
	}
	if c.StorageRetries <= 0 {
		c.StorageRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	return c
}

// Deps collects the collaborators the service orchestrates.
type Deps struct {
	Jobs    domain.JobRepository
	Assets  domain.AssetRepository
	Store   domain.ObjectStore
	Sources SourceResolver
	Video   video.Synthesizer
	Image   image.Synthesizer
}

// Service implements the job lifecycle: submit, status, refresh, list,
// delete, plus the background pipelines and pollers behind them.
type Service struct {
	cfg    Config
	deps   Deps
	logger *infra.Logger

	rootCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	pollers map[string]*pollHandle
}

func New(cfg Config, deps Deps, logger *infra.Logger) *Service {
	rootCtx, stop := context.WithCancel(context.Background())
	return &Service{
		cfg:     cfg.withDefaults(),
		deps:    deps,
		logger:  logger,
		rootCtx: rootCtx,
		stop:    stop,
		pollers: make(map[string]*pollHandle),
	}
}

// Submit validates the request, persists a queued job and starts its pipeline
// off the calling path. The returned job reflects the queued state; all later
// progress is observable through GetStatus.
func (s *Service) Submit(ctx context.Context, params domain.SubmitParams) (*domain.GenerationJob, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	job := &domain.GenerationJob{
		ID:              uuid.NewString(),
		TenantID:        params.TenantID,
		Mode:            params.Mode,
		Status:          domain.JobStatusQueued,
		Prompt:          strings.TrimSpace(params.Prompt),
		SecondaryPrompt: strings.TrimSpace(params.SecondaryPrompt),
		SourceRefs:      params.SourceRefs,
		Output:          params.Output.WithDefaults(params.Mode.Family()),
		EntityID:        params.EntityID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// upload_image stages its bytes before the row exists so the pipeline can
	// recover from the row alone after a restart.
	var staged *domain.Asset
	if params.Mode == domain.ModeUploadImage {
		asset, err := s.stageUpload(ctx, job, params.ImageData)
		if err != nil {
			return nil, err
		}
		staged = asset
	}

	if err := s.deps.Jobs.Create(ctx, job); err != nil {
		if staged != nil {
			if derr := s.deps.Store.Delete(ctx, staged.StorageKey); derr != nil {
				s.logger.Warn().Err(derr).Str("key", staged.StorageKey).Msg("orchestrator: orphaned staged upload")
			}
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	if staged != nil {
		if err := s.deps.Assets.SaveAll(ctx, []domain.Asset{*staged}); err != nil {
			s.markFailed(ctx, job.TenantID, job.ID, "record uploaded source: "+err.Error())
			return job, nil
		}
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("tenant_id", job.TenantID).
		Str("mode", string(job.Mode)).
		Msg("orchestrator: job submitted")

	s.launchPipeline(job, params.Locale)
	return job, nil
}

func (s *Service) stageUpload(ctx context.Context, job *domain.GenerationJob, data []byte) (*domain.Asset, error) {
	mime := sniffImageMIME(data)
	key := assetKey(job.TenantID, job.ID, domain.AssetVariantSource, mime)
	if err := s.writeObjectRetry(ctx, key, data); err != nil {
		return nil, fmt.Errorf("stage uploaded image: %w", err)
	}
	return &domain.Asset{
		ID:         uuid.NewString(),
		JobID:      job.ID,
		TenantID:   job.TenantID,
		Variant:    domain.AssetVariantSource,
		MIMEType:   mime,
		SizeBytes:  int64(len(data)),
		StorageKey: key,
	}, nil
}

// GetStatus is a tenant-scoped read of one job.
func (s *Service) GetStatus(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	return s.deps.Jobs.GetByID(ctx, tenantID, jobID)
}

// ForceRefresh performs one immediate status check against the backend,
// bypassing the interval scheduler, and returns the job as stored afterwards.
// Transient poll errors are logged, not surfaced: the caller still gets the
// current row.
func (s *Service) ForceRefresh(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	job, err := s.deps.Jobs.GetByID(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() || job.ExternalJobID == "" {
		return job, nil
	}
	if _, err := s.pollOnce(ctx, tenantID, jobID); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("orchestrator: refresh poll failed")
	}
	return s.deps.Jobs.GetByID(ctx, tenantID, jobID)
}

// List returns a page of the tenant's jobs plus the total match count.
func (s *Service) List(ctx context.Context, f domain.JobFilter) ([]domain.GenerationJob, int, error) {
	return s.deps.Jobs.List(ctx, f)
}

// Delete cancels local polling, removes asset rows and stored objects, then
// deletes the job row. Work already submitted to the backend cannot be
// cancelled remotely; only the local loop stops. Object-store cleanup
// failures are logged, not surfaced: the row is already gone.
func (s *Service) Delete(ctx context.Context, tenantID, jobID string) error {
	s.cancelPolling(jobID)
	if err := s.deps.Assets.DeleteByJobID(ctx, tenantID, jobID); err != nil {
		return fmt.Errorf("delete asset rows: %w", err)
	}
	deleted, err := s.deps.Jobs.Delete(ctx, tenantID, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	if err := s.deps.Store.DeleteAll(ctx, tenantID+"/"+jobID); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("orchestrator: object cleanup failed")
	}
	s.logger.Info().Str("job_id", jobID).Str("tenant_id", tenantID).Msg("orchestrator: job deleted")
	return nil
}

// Close stops every background loop and waits for them to exit.
func (s *Service) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *Service) launchPipeline(job *domain.GenerationJob, locale string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPipeline(s.rootCtx, job, locale)
	}()
}

// markFailed lands the job in failed with a human-readable message. Zero rows
// affected means the job already settled, which is fine.
func (s *Service) markFailed(ctx context.Context, tenantID, jobID, message string) {
	if message == "" {
		message = "generation failed"
	}
	failed, err := s.deps.Jobs.Fail(ctx, tenantID, jobID, message)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("orchestrator: could not mark job failed")
		}
		return
	}
	if failed {
		s.logger.Info().Str("job_id", jobID).Str("error", message).Msg("orchestrator: job failed")
	}
}
