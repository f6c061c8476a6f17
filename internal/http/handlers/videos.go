package handlers

import (
	"net/http"

	"mediagen/internal/domain"
)

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	a.generateJob(w, r, domain.FamilyVideo)
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	a.jobStatus(w, r, domain.FamilyVideo)
}

func (a *App) VideoRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshJob(w, r, domain.FamilyVideo)
}

func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	a.listJobs(w, r, domain.FamilyVideo)
}

func (a *App) VideoDelete(w http.ResponseWriter, r *http.Request) {
	a.deleteJob(w, r, domain.FamilyVideo)
}
