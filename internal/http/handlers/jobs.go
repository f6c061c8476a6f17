package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/domain"
	"mediagen/internal/middleware"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// generateRequest is the wire shape shared by both generate endpoints. Which
// fields are required depends on mode and is enforced by submission
// validation before any row is written.
type generateRequest struct {
	Mode             string                   `json:"mode"`
	Prompt           string                   `json:"prompt"`
	SecondaryPrompt  string                   `json:"secondary_prompt"`
	SourceReferences []domain.SourceReference `json:"source_references"`
	Output           domain.OutputConfig      `json:"output"`
	EntityID         string                   `json:"entity_id"`
	ImageData        string                   `json:"image_data"`
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (a *App) generateJob(w http.ResponseWriter, r *http.Request, family domain.Family) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mode := domain.Mode(req.Mode)
	if mode.Valid() && mode.Family() != family {
		a.validationError(w, "mode", fmt.Sprintf("mode %s does not produce %s output", mode, family))
		return
	}
	imageData, err := decodeImageData(req.ImageData)
	if err != nil {
		a.validationError(w, "image_data", "must be base64-encoded")
		return
	}
	job, err := a.Service.Submit(r.Context(), domain.SubmitParams{
		TenantID:        tenantID,
		Mode:            mode,
		Prompt:          req.Prompt,
		SecondaryPrompt: req.SecondaryPrompt,
		SourceRefs:      req.SourceReferences,
		Output:          req.Output,
		EntityID:        req.EntityID,
		ImageData:       imageData,
		Locale:          middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, submitResponse{JobID: job.ID, Status: string(job.Status)})
}

func (a *App) jobStatus(w http.ResponseWriter, r *http.Request, family domain.Family) {
	job, ok := a.loadFamilyJob(w, r, family)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.jobView(job))
}

func (a *App) refreshJob(w http.ResponseWriter, r *http.Request, family domain.Family) {
	job, ok := a.loadFamilyJob(w, r, family)
	if !ok {
		return
	}
	fresh, err := a.Service.ForceRefresh(r.Context(), job.TenantID, job.ID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.json(w, http.StatusOK, a.jobView(fresh))
}

func (a *App) listJobs(w http.ResponseWriter, r *http.Request, family domain.Family) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	q := r.URL.Query()
	filter := domain.JobFilter{
		TenantID: tenantID,
		Family:   family,
		EntityID: q.Get("entity_id"),
	}
	if v := q.Get("status"); v != "" {
		status := domain.JobStatus(v)
		switch status {
		case domain.JobStatusQueued, domain.JobStatusInProgress, domain.JobStatusCompleted, domain.JobStatusFailed:
			filter.Status = status
		default:
			a.validationError(w, "status", fmt.Sprintf("unknown status %q", v))
			return
		}
	}
	if v := q.Get("mode"); v != "" {
		mode := domain.Mode(v)
		if !mode.Valid() || mode.Family() != family {
			a.validationError(w, "mode", fmt.Sprintf("unknown %s mode %q", family, v))
			return
		}
		filter.Mode = mode
	}
	filter.Limit, filter.Offset = pagination(q.Get("limit"), q.Get("offset"))
	jobs, total, err := a.Service.List(r.Context(), filter)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		items = append(items, a.jobView(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (a *App) deleteJob(w http.ResponseWriter, r *http.Request, family domain.Family) {
	job, ok := a.loadFamilyJob(w, r, family)
	if !ok {
		return
	}
	if err := a.Service.Delete(r.Context(), job.TenantID, job.ID); err != nil {
		a.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadFamilyJob fetches the job behind {id} and enforces that it belongs to
// the resource's family: a video job is not addressable under /images and
// vice versa.
func (a *App) loadFamilyJob(w http.ResponseWriter, r *http.Request, family domain.Family) (*domain.GenerationJob, bool) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return nil, false
	}
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return nil, false
	}
	job, err := a.Service.GetStatus(r.Context(), tenantID, jobID)
	if err != nil {
		a.writeDomainError(w, err)
		return nil, false
	}
	if job.Mode.Family() != family {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	return job, true
}

func pagination(limitRaw, offsetRaw string) (int, int) {
	limit, _ := strconv.Atoi(limitRaw)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, _ := strconv.Atoi(offsetRaw)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// decodeImageData accepts plain base64 or a data URL.
func decodeImageData(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if idx := strings.IndexByte(raw, ','); idx >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}
