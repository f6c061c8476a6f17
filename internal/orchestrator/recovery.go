package orchestrator

import (
	"context"
	"fmt"

	"mediagen/internal/domain"
)

// Recover rebuilds in-flight work from the job store after a restart. Queued
// rows re-run their pipeline, in_progress rows with an external id get a
// fresh polling loop, and in_progress rows that never reached the backend are
// failed outright: no durable state lives only in memory.
func (s *Service) Recover(ctx context.Context) error {
	jobs, err := s.deps.Jobs.ListUnsettled(ctx)
	if err != nil {
		return fmt.Errorf("list unsettled jobs: %w", err)
	}

	var requeued, reattached, failed int
	for i := range jobs {
		job := jobs[i]
		switch {
		case job.Status == domain.JobStatusQueued:
			s.launchPipeline(&job, "")
			requeued++
		case job.ExternalJobID != "":
			s.watch(job.TenantID, job.ID)
			reattached++
		default:
			s.markFailed(ctx, job.TenantID, job.ID, "interrupted by restart before submission completed")
			failed++
		}
	}

	if len(jobs) > 0 {
		s.logger.Info().
			Int("requeued", requeued).
			Int("reattached", reattached).
			Int("failed", failed).
			Msg("orchestrator: recovered unsettled jobs")
	}
	return nil
}
