package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"mediagen/internal/domain"
	"mediagen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository. Status transitions are
// guarded in SQL, so a mutation against an already-settled job affects zero
// rows instead of regressing the state machine.
type JobRepositoryPG struct {
	db DBTX
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(db DBTX) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a new job record in its initial state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	refs, err := json.Marshal(sourceRefsOrEmpty(job.SourceRefs))
	if err != nil {
		return fmt.Errorf("repo: marshal source refs: %w", err)
	}
	cfg, err := json.Marshal(job.Output)
	if err != nil {
		return fmt.Errorf("repo: marshal output config: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QJobInsert,
		job.ID,
		job.TenantID,
		string(job.Mode),
		string(job.Status),
		job.Prompt,
		job.SecondaryPrompt,
		refs,
		cfg,
		job.EntityID,
	)
	return err
}

// GetByID fetches a job scoped to its owning tenant.
func (r *JobRepositoryPG) GetByID(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	row := r.db.QueryRow(ctx, sqlinline.QJobGet, tenantID, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns a page of jobs matching the filter plus the total match count.
func (r *JobRepositoryPG) List(ctx context.Context, f domain.JobFilter) ([]domain.GenerationJob, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, sqlinline.QJobList,
		f.TenantID,
		modeFilter(f),
		string(f.Status),
		f.EntityID,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	total := 0
	for rows.Next() {
		job, n, err := scanJobWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// Start moves a queued job to in_progress. It reports false when the job was
// not in queued (already started or settled).
func (r *JobRepositoryPG) Start(ctx context.Context, tenantID, jobID string) (bool, error) {
	tag, err := r.db.Exec(ctx, sqlinline.QJobStart, tenantID, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetExternalJobID records the adapter-assigned identifier.
func (r *JobRepositoryPG) SetExternalJobID(ctx context.Context, tenantID, jobID, externalJobID string) error {
	_, err := r.db.Exec(ctx, sqlinline.QJobSetExternalID, tenantID, jobID, externalJobID)
	return err
}

// UpdateProgress raises progress while in_progress. Progress never decreases;
// the SQL keeps the greater of the stored and reported values.
func (r *JobRepositoryPG) UpdateProgress(ctx context.Context, tenantID, jobID string, progress int) error {
	_, err := r.db.Exec(ctx, sqlinline.QJobUpdateProgress, tenantID, jobID, progress)
	return err
}

// IncrementRetry counts one absorbed transient error.
func (r *JobRepositoryPG) IncrementRetry(ctx context.Context, tenantID, jobID string) error {
	_, err := r.db.Exec(ctx, sqlinline.QJobIncrementRetry, tenantID, jobID)
	return err
}

// Complete settles a job successfully, recording its asset locators.
func (r *JobRepositoryPG) Complete(ctx context.Context, tenantID, jobID, assetKey, thumbnailKey string) (bool, error) {
	tag, err := r.db.Exec(ctx, sqlinline.QJobComplete, tenantID, jobID, assetKey, thumbnailKey)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Fail settles a job with an error message.
func (r *JobRepositoryPG) Fail(ctx context.Context, tenantID, jobID, message string) (bool, error) {
	if strings.TrimSpace(message) == "" {
		message = "generation failed"
	}
	tag, err := r.db.Exec(ctx, sqlinline.QJobFail, tenantID, jobID, message)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the job row. It reports false when no row existed.
func (r *JobRepositoryPG) Delete(ctx context.Context, tenantID, jobID string) (bool, error) {
	tag, err := r.db.Exec(ctx, sqlinline.QJobDelete, tenantID, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUnsettled returns every queued and in_progress job across tenants, for
// startup recovery.
func (r *JobRepositoryPG) ListUnsettled(ctx context.Context) ([]domain.GenerationJob, error) {
	rows, err := r.db.Query(ctx, sqlinline.QJobListUnsettled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func modeFilter(f domain.JobFilter) string {
	if f.Mode != "" {
		return string(f.Mode)
	}
	if f.Family == "" {
		return ""
	}
	modes := []string{}
	for _, m := range []domain.Mode{
		domain.ModeSourceImageToVideo,
		domain.ModeTextToVideo,
		domain.ModeGeneratedImageToVideo,
		domain.ModeUploadImage,
		domain.ModeTextToImage,
		domain.ModeReferenceComposition,
	} {
		if m.Family() == f.Family {
			modes = append(modes, string(m))
		}
	}
	return strings.Join(modes, ",")
}

func sourceRefsOrEmpty(refs []domain.SourceReference) []domain.SourceReference {
	if refs == nil {
		return []domain.SourceReference{}
	}
	return refs
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	return scanJobInto(row, nil)
}

func scanJobWithTotal(row rowScanner) (*domain.GenerationJob, int, error) {
	var total int
	job, err := scanJobInto(row, &total)
	return job, total, err
}

func scanJobInto(row rowScanner, total *int) (*domain.GenerationJob, error) {
	var (
		job     domain.GenerationJob
		mode    string
		status  string
		refsRaw []byte
		cfgRaw  []byte
	)
	dest := []any{
		&job.ID,
		&job.TenantID,
		&mode,
		&status,
		&job.Prompt,
		&job.SecondaryPrompt,
		&refsRaw,
		&cfgRaw,
		&job.EntityID,
		&job.ExternalJobID,
		&job.Progress,
		&job.RetryCount,
		&job.GeneratedAssetKey,
		&job.ThumbnailKey,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	job.Mode = domain.Mode(mode)
	job.Status = domain.JobStatus(status)
	if len(refsRaw) > 0 {
		if err := json.Unmarshal(refsRaw, &job.SourceRefs); err != nil {
			return nil, fmt.Errorf("repo: unmarshal source refs: %w", err)
		}
	}
	if len(cfgRaw) > 0 {
		if err := json.Unmarshal(cfgRaw, &job.Output); err != nil {
			return nil, fmt.Errorf("repo: unmarshal output config: %w", err)
		}
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
