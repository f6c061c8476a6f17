package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/providers/video"
)

type pollHandle struct {
	cancel context.CancelFunc
}

// watch starts the polling loop for a job that has been submitted to the
// video backend. A second watch on the same id replaces the first loop.
func (s *Service) watch(tenantID, jobID string) {
	ctx, cancel := context.WithCancel(s.rootCtx)
	handle := &pollHandle{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.pollers[jobID]; ok {
		prev.cancel()
	}
	s.pollers[jobID] = handle
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(jobID, handle)
		s.pollLoop(ctx, tenantID, jobID)
	}()
}

// cancelPolling stops the loop for one job, if any.
func (s *Service) cancelPolling(jobID string) {
	s.mu.Lock()
	handle, ok := s.pollers[jobID]
	if ok {
		delete(s.pollers, jobID)
	}
	s.mu.Unlock()
	if ok {
		handle.cancel()
	}
}

// StopAll cancels every active polling loop without waiting for them.
func (s *Service) StopAll() {
	s.mu.Lock()
	handles := make([]*pollHandle, 0, len(s.pollers))
	for id, handle := range s.pollers {
		handles = append(handles, handle)
		delete(s.pollers, id)
	}
	s.mu.Unlock()
	for _, handle := range handles {
		handle.cancel()
	}
}

func (s *Service) release(jobID string, handle *pollHandle) {
	s.mu.Lock()
	if s.pollers[jobID] == handle {
		delete(s.pollers, jobID)
	}
	s.mu.Unlock()
	handle.cancel()
}

// pollLoop ticks at the configured interval until the job settles or the
// attempt budget runs out. Transient errors consume attempts; only a terminal
// backend answer or the budget ends the job.
func (s *Service) pollLoop(ctx context.Context, tenantID, jobID string) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.cfg.PollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		settled, err := s.pollOnce(ctx, tenantID, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Str("job_id", jobID).Int("attempt", attempt).Msg("orchestrator: poll failed")
			if rerr := s.deps.Jobs.IncrementRetry(ctx, tenantID, jobID); rerr != nil {
				s.logger.Debug().Err(rerr).Str("job_id", jobID).Msg("orchestrator: retry counter update failed")
			}
			continue
		}
		if settled {
			return
		}
	}

	elapsed := time.Duration(s.cfg.PollMaxAttempts) * s.cfg.PollInterval
	s.markFailed(ctx, tenantID, jobID,
		fmt.Sprintf("timed out after %d status checks (%s) without a terminal result", s.cfg.PollMaxAttempts, elapsed))
}

// pollOnce performs one status check and applies the outcome through the
// guarded store updates. It reports whether the job is settled. The job row
// is reloaded every tick: the store is the single source of truth, so a
// concurrent delete or refresh is picked up here.
func (s *Service) pollOnce(ctx context.Context, tenantID, jobID string) (bool, error) {
	job, err := s.deps.Jobs.GetByID(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted while polling.
			return true, nil
		}
		return false, err
	}
	if job.Status.Terminal() {
		return true, nil
	}
	if job.ExternalJobID == "" {
		return false, fmt.Errorf("job has no external id yet")
	}

	st, err := s.deps.Video.CheckStatus(ctx, job.ExternalJobID)
	if err != nil {
		if domain.IsTerminalAdapterError(err) {
			s.markFailed(ctx, tenantID, jobID, fmt.Sprintf("video backend rejected the job: %v", err))
			return true, nil
		}
		return false, err
	}

	switch st.State {
	case video.StateFailed:
		msg := st.Message
		if msg == "" {
			msg = "video backend reported failure"
		}
		if st.Code != "" {
			msg = st.Code + ": " + msg
		}
		s.markFailed(ctx, tenantID, jobID, msg)
		return true, nil
	case video.StateCompleted:
		if err := s.completeRemote(ctx, job); err != nil {
			if domain.IsTerminalAdapterError(err) {
				s.markFailed(ctx, tenantID, jobID, fmt.Sprintf("retrieve generated video: %v", err))
				return true, nil
			}
			// Next tick sees completed again and retries the download.
			return false, err
		}
		return true, nil
	default:
		if st.Progress > 0 {
			if err := s.deps.Jobs.UpdateProgress(ctx, tenantID, jobID, st.Progress); err != nil {
				return false, fmt.Errorf("update progress: %w", err)
			}
		}
		return false, nil
	}
}

// completeRemote downloads the finished artifacts and lands the job in
// completed. The thumbnail is best effort; the output download gets the
// bounded storage retry policy.
func (s *Service) completeRemote(ctx context.Context, job *domain.GenerationJob) error {
	data, mime, err := s.downloadWithRetries(ctx, job.ExternalJobID, video.VariantOutput)
	if err != nil {
		return fmt.Errorf("download output: %w", err)
	}
	outputKey, err := s.writeAsset(ctx, job, domain.AssetVariantOutput, data, mime)
	if err != nil {
		return err
	}
	thumbKey := ""
	if thumb, thumbMIME, err := s.downloadWithRetries(ctx, job.ExternalJobID, video.VariantThumbnail); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("orchestrator: thumbnail download failed")
	} else if key, werr := s.writeAsset(ctx, job, domain.AssetVariantThumbnail, thumb, thumbMIME); werr != nil {
		s.logger.Warn().Err(werr).Str("job_id", job.ID).Msg("orchestrator: thumbnail store failed")
	} else {
		thumbKey = key
	}
	completed, err := s.deps.Jobs.Complete(ctx, job.TenantID, job.ID, outputKey, thumbKey)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if !completed {
		s.logger.Debug().Str("job_id", job.ID).Msg("orchestrator: job already settled")
		return nil
	}
	s.logger.Info().Str("job_id", job.ID).Str("asset_key", outputKey).Msg("orchestrator: job completed")
	return nil
}

func (s *Service) downloadWithRetries(ctx context.Context, externalID, variant string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.StorageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
		}
		data, mime, err := s.deps.Video.DownloadAsset(ctx, externalID, variant)
		if err != nil {
			if domain.IsTerminalAdapterError(err) {
				return nil, "", err
			}
			lastErr = err
			continue
		}
		return data, mime, nil
	}
	return nil, "", lastErr
}
