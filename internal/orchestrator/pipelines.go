package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediagen/internal/domain"
	"mediagen/internal/imaging"
	"mediagen/internal/providers/image"
	"mediagen/internal/providers/video"
)

// runPipeline moves the job to in_progress and executes the mode's steps.
// Any step error lands the job in failed; a cancelled context at shutdown
// leaves the row for recovery instead.
func (s *Service) runPipeline(ctx context.Context, job *domain.GenerationJob, locale string) {
	started, err := s.deps.Jobs.Start(ctx, job.TenantID, job.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("orchestrator: could not start job")
		return
	}
	if !started {
		s.logger.Warn().Str("job_id", job.ID).Msg("orchestrator: job not in queued state, skipping pipeline")
		return
	}

	var runErr error
	switch job.Mode {
	case domain.ModeSourceImageToVideo:
		runErr = s.runSourceImageToVideo(ctx, job, locale)
	case domain.ModeTextToVideo:
		runErr = s.runTextToVideo(ctx, job, locale)
	case domain.ModeGeneratedImageToVideo:
		runErr = s.runGeneratedImageToVideo(ctx, job, locale)
	case domain.ModeUploadImage:
		runErr = s.runUploadImage(ctx, job)
	case domain.ModeTextToImage:
		runErr = s.runTextToImage(ctx, job, locale)
	case domain.ModeReferenceComposition:
		runErr = s.runReferenceComposition(ctx, job, locale)
	default:
		runErr = fmt.Errorf("unknown mode %q", string(job.Mode))
	}
	if runErr == nil {
		return
	}
	if ctx.Err() != nil {
		// Shutting down. The row stays in_progress and recovery decides.
		s.logger.Warn().Str("job_id", job.ID).Msg("orchestrator: pipeline interrupted by shutdown")
		return
	}
	s.markFailed(ctx, job.TenantID, job.ID, runErr.Error())
}

func (s *Service) runSourceImageToVideo(ctx context.Context, job *domain.GenerationJob, locale string) error {
	resolved, err := s.deps.Sources.Fetch(ctx, job.TenantID, job.SourceRefs[0])
	if err != nil {
		return err
	}
	frame, frameMIME, err := imaging.CoverResize(resolved.Data, job.Output.Width, job.Output.Height)
	if err != nil {
		return fmt.Errorf("resize source image: %w", err)
	}
	return s.submitVideo(ctx, job, video.SubmitRequest{
		Prompt:          buildSynthesisPrompt(job.Prompt, resolved.Name, locale),
		ImageData:       frame,
		ImageMIME:       frameMIME,
		Width:           job.Output.Width,
		Height:          job.Output.Height,
		DurationSeconds: job.Output.DurationSeconds,
		AspectRatio:     job.Output.AspectRatio,
	})
}

func (s *Service) runTextToVideo(ctx context.Context, job *domain.GenerationJob, locale string) error {
	return s.submitVideo(ctx, job, video.SubmitRequest{
		Prompt:          buildSynthesisPrompt(job.Prompt, "", locale),
		Width:           job.Output.Width,
		Height:          job.Output.Height,
		DurationSeconds: job.Output.DurationSeconds,
		AspectRatio:     job.Output.AspectRatio,
	})
}

// runGeneratedImageToVideo first renders a still with the image backend, then
// animates it: the primary prompt describes the still, the secondary prompt
// the motion.
func (s *Service) runGeneratedImageToVideo(ctx context.Context, job *domain.GenerationJob, locale string) error {
	result, err := s.deps.Image.Generate(ctx, image.GenerateRequest{
		Prompt:      buildSynthesisPrompt(job.Prompt, "", locale),
		AspectRatio: job.Output.AspectRatio,
	})
	if err != nil {
		return fmt.Errorf("generate intermediate image: %w", err)
	}
	frame, frameMIME, err := imaging.CoverResize(result.Data, job.Output.Width, job.Output.Height)
	if err != nil {
		return fmt.Errorf("resize intermediate image: %w", err)
	}
	if _, err := s.writeAsset(ctx, job, domain.AssetVariantIntermediate, frame, frameMIME); err != nil {
		return err
	}
	return s.submitVideo(ctx, job, video.SubmitRequest{
		Prompt:          buildSynthesisPrompt(job.SecondaryPrompt, "", locale),
		ImageData:       frame,
		ImageMIME:       frameMIME,
		Width:           job.Output.Width,
		Height:          job.Output.Height,
		DurationSeconds: job.Output.DurationSeconds,
		AspectRatio:     job.Output.AspectRatio,
	})
}

// runUploadImage persists the staged bytes as the output without any backend
// call.
func (s *Service) runUploadImage(ctx context.Context, job *domain.GenerationJob) error {
	assets, err := s.deps.Assets.ListByJobID(ctx, job.TenantID, job.ID)
	if err != nil {
		return fmt.Errorf("list staged assets: %w", err)
	}
	var source *domain.Asset
	for i := range assets {
		if assets[i].Variant == domain.AssetVariantSource {
			source = &assets[i]
			break
		}
	}
	if source == nil {
		return fmt.Errorf("uploaded source asset is missing")
	}
	data, err := s.deps.Store.Read(ctx, source.StorageKey)
	if err != nil {
		return fmt.Errorf("read uploaded source: %w", err)
	}
	return s.completeWithImage(ctx, job, data, source.MIMEType)
}

func (s *Service) runTextToImage(ctx context.Context, job *domain.GenerationJob, locale string) error {
	result, err := s.deps.Image.Generate(ctx, image.GenerateRequest{
		Prompt:      buildSynthesisPrompt(job.Prompt, "", locale),
		AspectRatio: job.Output.AspectRatio,
	})
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}
	return s.completeWithImage(ctx, job, result.Data, result.MIMEType)
}

// runReferenceComposition feeds every resolved reference, in request order,
// into one composition call.
func (s *Service) runReferenceComposition(ctx context.Context, job *domain.GenerationJob, locale string) error {
	resolved, err := s.deps.Sources.FetchMany(ctx, job.TenantID, job.SourceRefs)
	if err != nil {
		return err
	}
	refs := make([][]byte, len(resolved))
	subject := ""
	for i := range resolved {
		refs[i] = resolved[i].Data
		if subject == "" && resolved[i].Name != "" {
			subject = resolved[i].Name
		}
	}
	result, err := s.deps.Image.Generate(ctx, image.GenerateRequest{
		Prompt:          buildSynthesisPrompt(job.Prompt, subject, locale),
		ReferenceImages: refs,
		AspectRatio:     job.Output.AspectRatio,
	})
	if err != nil {
		return fmt.Errorf("compose image: %w", err)
	}
	return s.completeWithImage(ctx, job, result.Data, result.MIMEType)
}

// submitVideo sends the request to the video backend, records the external id
// and hands the job to the poller.
func (s *Service) submitVideo(ctx context.Context, job *domain.GenerationJob, req video.SubmitRequest) error {
	externalID, err := s.deps.Video.Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submit video generation: %w", err)
	}
	if err := s.deps.Jobs.SetExternalJobID(ctx, job.TenantID, job.ID, externalID); err != nil {
		return fmt.Errorf("record external job id: %w", err)
	}
	s.logger.Info().Str("job_id", job.ID).Str("external_id", externalID).Msg("orchestrator: video job submitted")
	s.watch(job.TenantID, job.ID)
	return nil
}

// completeWithImage stores the output, derives a thumbnail (best effort) and
// lands the job in completed.
func (s *Service) completeWithImage(ctx context.Context, job *domain.GenerationJob, data []byte, mime string) error {
	outputKey, err := s.writeAsset(ctx, job, domain.AssetVariantOutput, data, mime)
	if err != nil {
		return err
	}
	thumbKey := ""
	if thumb, thumbMIME, err := imaging.Thumbnail(data, imaging.ThumbnailMaxEdge); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("orchestrator: thumbnail generation failed")
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

// writeAsset stores the bytes under the job's key space (with retries) and
// records the asset row.
func (s *Service) writeAsset(ctx context.Context, job *domain.GenerationJob, variant domain.AssetVariant, data []byte, mime string) (string, error) {
	key := assetKey(job.TenantID, job.ID, variant, mime)
	if err := s.writeObjectRetry(ctx, key, data); err != nil {
		return "", fmt.Errorf("store %s asset: %w", variant, err)
	}
	asset := domain.Asset{
		ID:         uuid.NewString(),
		JobID:      job.ID,
		TenantID:   job.TenantID,
		Variant:    variant,
		MIMEType:   mime,
		SizeBytes:  int64(len(data)),
		StorageKey: key,
	}
	if err := s.deps.Assets.SaveAll(ctx, []domain.Asset{asset}); err != nil {
		return "", fmt.Errorf("record %s asset: %w", variant, err)
	}
	return key, nil
}

// writeObjectRetry applies the bounded storage retry policy to one write.
func (s *Service) writeObjectRetry(ctx context.Context, key string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.StorageRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
		}
		if _, err := s.deps.Store.Write(ctx, key, data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func assetKey(tenantID, jobID string, variant domain.AssetVariant, mime string) string {
	return fmt.Sprintf("%s/%s/%s%s", tenantID, jobID, variant, extensionForMIME(mime))
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	if i := strings.IndexByte(mime, '/'); i >= 0 && i+1 < len(mime) {
		return "." + mime[i+1:]
	}
	return ".bin"
}

func sniffImageMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "application/octet-stream"
	}
	return mime
}
