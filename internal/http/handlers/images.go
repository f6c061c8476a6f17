package handlers

import (
	"net/http"

	"mediagen/internal/domain"
)

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	a.generateJob(w, r, domain.FamilyImage)
}

func (a *App) ImageStatus(w http.ResponseWriter, r *http.Request) {
	a.jobStatus(w, r, domain.FamilyImage)
}

func (a *App) ImageRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshJob(w, r, domain.FamilyImage)
}

func (a *App) ImagesList(w http.ResponseWriter, r *http.Request) {
	a.listJobs(w, r, domain.FamilyImage)
}

func (a *App) ImageDelete(w http.ResponseWriter, r *http.Request) {
	a.deleteJob(w, r, domain.FamilyImage)
}
