package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/middleware"
)

const testTenant = "tenant-1"

// stubService scripts the orchestrator surface and records what the handlers
// asked for.
type stubService struct {
	submitted   []domain.SubmitParams
	submitJob   *domain.GenerationJob
	submitErr   error
	jobs        map[string]*domain.GenerationJob
	refreshed   []string
	refreshErr  error
	listFilter  domain.JobFilter
	listJobs    []domain.GenerationJob
	listTotal   int
	listErr     error
	deleted     []string
	deleteErr   error
	statusCalls int
}

func (s *stubService) Submit(_ context.Context, params domain.SubmitParams) (*domain.GenerationJob, error) {
	s.submitted = append(s.submitted, params)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	if s.submitJob != nil {
		return s.submitJob, nil
	}
	return &domain.GenerationJob{
		ID:       "job-1",
		TenantID: params.TenantID,
		Mode:     params.Mode,
		Status:   domain.JobStatusQueued,
	}, nil
}

func (s *stubService) GetStatus(_ context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	s.statusCalls++
	job, ok := s.jobs[jobID]
	if !ok || job.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	dup := *job
	return &dup, nil
}

func (s *stubService) ForceRefresh(ctx context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	s.refreshed = append(s.refreshed, jobID)
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.GetStatus(ctx, tenantID, jobID)
}

func (s *stubService) List(_ context.Context, f domain.JobFilter) ([]domain.GenerationJob, int, error) {
	s.listFilter = f
	return s.listJobs, s.listTotal, s.listErr
}

func (s *stubService) Delete(_ context.Context, tenantID, jobID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	job, ok := s.jobs[jobID]
	if !ok || job.TenantID != tenantID {
		return domain.ErrNotFound
	}
	s.deleted = append(s.deleted, jobID)
	delete(s.jobs, jobID)
	return nil
}

type stubAssets struct {
	rows    []domain.Asset
	listErr error
}

func (s *stubAssets) SaveAll(context.Context, []domain.Asset) error { return nil }

func (s *stubAssets) ListByJobID(_ context.Context, tenantID, jobID string) ([]domain.Asset, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Asset
	for _, row := range s.rows {
		if row.TenantID == tenantID && row.JobID == jobID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubAssets) GetByID(_ context.Context, tenantID, assetID string) (*domain.Asset, error) {
	for _, row := range s.rows {
		if row.TenantID == tenantID && row.ID == assetID {
			dup := row
			return &dup, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubAssets) DeleteByJobID(context.Context, string, string) error { return nil }

type stubStore struct {
	objects map[string][]byte
}

func (s *stubStore) Write(_ context.Context, key string, data []byte) (string, error) {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return key, nil
}

func (s *stubStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return data, nil
}

func (s *stubStore) Delete(context.Context, string) error { return nil }

func (s *stubStore) DeleteAll(context.Context, string) error { return nil }

func (s *stubStore) URL(key string) string { return "/media/" + key }

type stubStats struct {
	stats domain.GenerationStats
	err   error
}

func (s *stubStats) Summary(context.Context) (*domain.GenerationStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	dup := s.stats
	return &dup, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

type fixture struct {
	app     *App
	service *stubService
	assets  *stubAssets
	store   *stubStore
	stats   *stubStats
	pinger  *stubPinger
}

func newTestApp(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		service: &stubService{jobs: map[string]*domain.GenerationJob{}},
		assets:  &stubAssets{},
		store:   &stubStore{objects: map[string][]byte{}},
		stats:   &stubStats{},
		pinger:  &stubPinger{},
	}
	f.app = &App{
		Service:    f.service,
		Assets:     f.assets,
		Store:      f.store,
		Stats:      f.stats,
		DB:         f.pinger,
		Logger:     zerolog.New(io.Discard),
		StatsToken: "stats-secret",
	}
	return f
}

func (f *fixture) addJob(job domain.GenerationJob) *domain.GenerationJob {
	if job.TenantID == "" {
		job.TenantID = testTenant
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
		job.UpdatedAt = job.CreatedAt
	}
	f.service.jobs[job.ID] = &job
	return &job
}

// newRequest builds a request carrying the test tenant and, optionally, a
// chi {id} URL parameter.
func newRequest(method, target, jobID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.ContextWithTenantID(req.Context(), testTenant)
	if jobID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", jobID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
