package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/domain"
	"mediagen/pkg/zip"
)

// JobAssets lists the stored artifact rows for one job, any family.
func (a *App) JobAssets(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	assets, err := a.Assets.ListByJobID(r.Context(), job.TenantID, job.ID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"id":          asset.ID,
			"job_id":      asset.JobID,
			"variant":     asset.Variant,
			"mime":        asset.MIMEType,
			"size_bytes":  asset.SizeBytes,
			"storage_key": asset.StorageKey,
			"url":         a.Store.URL(asset.StorageKey),
			"created_at":  asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// JobAssetsZip streams every stored artifact of a job as one archive.
// Artifacts whose bytes are gone are skipped rather than failing the whole
// download.
func (a *App) JobAssetsZip(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	assets, err := a.Assets.ListByJobID(r.Context(), job.TenantID, job.ID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	entries := make([]zip.Asset, 0, len(assets))
	for _, asset := range assets {
		data, err := a.Store.Read(r.Context(), asset.StorageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("skipping unreadable asset in archive")
			continue
		}
		name := string(asset.Variant)
		if len(asset.ID) >= 8 {
			name = fmt.Sprintf("%s-%s", asset.Variant, asset.ID[:8])
		}
		entries = append(entries, zip.Asset{Filename: name, MIME: asset.MIMEType, Data: data})
	}
	archive := zip.ArchiveAssets(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=job-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// AssetDownload streams one artifact's bytes with its stored content type.
func (a *App) AssetDownload(w http.ResponseWriter, r *http.Request) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	assetID := chi.URLParam(r, "id")
	asset, err := a.Assets.GetByID(r.Context(), tenantID, assetID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	data, err := a.Store.Read(r.Context(), asset.StorageKey)
	if err != nil {
		a.Logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("asset row exists but bytes are unreadable")
		a.error(w, http.StatusNotFound, "not_found", "asset data not found")
		return
	}
	w.Header().Set("Content-Type", asset.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// loadJob fetches the job behind {id} without family scoping, for the
// family-agnostic /jobs endpoints.
func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.GenerationJob, bool) {
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
	return job, true
}
