package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/providers/image"
	"mediagen/internal/providers/video"
	"mediagen/internal/resolver"
)

// memJobs is an in-memory JobRepository with the same guarded transition
// semantics the SQL layer enforces. It records every status a job passes
// through so tests can assert the forward-only sequence.
type memJobs struct {
	mu      sync.Mutex
	rows    map[string]*domain.GenerationJob
	history map[string][]domain.JobStatus
}

func newMemJobs() *memJobs {
	return &memJobs{
		rows:    make(map[string]*domain.GenerationJob),
		history: make(map[string][]domain.JobStatus),
	}
}

func (m *memJobs) Create(_ context.Context, job *domain.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.rows[job.ID] = &cp
	m.history[job.ID] = append(m.history[job.ID], job.Status)
	return nil
}

func (m *memJobs) locked(tenantID, jobID string) *domain.GenerationJob {
	row, ok := m.rows[jobID]
	if !ok || row.TenantID != tenantID {
		return nil
	}
	return row
}

func (m *memJobs) GetByID(_ context.Context, tenantID, jobID string) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil {
		return nil, domain.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memJobs) List(_ context.Context, f domain.JobFilter) ([]domain.GenerationJob, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []domain.GenerationJob
	for _, row := range m.rows {
		if row.TenantID != f.TenantID {
			continue
		}
		if f.Family != "" && row.Mode.Family() != f.Family {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if f.Mode != "" && row.Mode != f.Mode {
			continue
		}
		if f.EntityID != "" && row.EntityID != f.EntityID {
			continue
		}
		matched = append(matched, *row)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *memJobs) Start(_ context.Context, tenantID, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil || row.Status != domain.JobStatusQueued {
		return false, nil
	}
	row.Status = domain.JobStatusInProgress
	m.history[jobID] = append(m.history[jobID], row.Status)
	return true, nil
}

func (m *memJobs) SetExternalJobID(_ context.Context, tenantID, jobID, externalJobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil {
		return domain.ErrNotFound
	}
	row.ExternalJobID = externalJobID
	return nil
}

func (m *memJobs) UpdateProgress(_ context.Context, tenantID, jobID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil {
		return domain.ErrNotFound
	}
	if row.Status == domain.JobStatusInProgress && progress > row.Progress {
		row.Progress = progress
	}
	return nil
}

func (m *memJobs) IncrementRetry(_ context.Context, tenantID, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil {
		return domain.ErrNotFound
	}
	row.RetryCount++
	return nil
}

func (m *memJobs) Complete(_ context.Context, tenantID, jobID, assetKey, thumbnailKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil || row.Status != domain.JobStatusInProgress {
		return false, nil
	}
	now := time.Now().UTC()
	row.Status = domain.JobStatusCompleted
	row.Progress = 100
	row.GeneratedAssetKey = assetKey
	row.ThumbnailKey = thumbnailKey
	row.CompletedAt = &now
	m.history[jobID] = append(m.history[jobID], row.Status)
	return true, nil
}

func (m *memJobs) Fail(_ context.Context, tenantID, jobID, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.locked(tenantID, jobID)
	if row == nil || row.Status.Terminal() {
		return false, nil
	}
	row.Status = domain.JobStatusFailed
	row.ErrorMessage = message
	m.history[jobID] = append(m.history[jobID], row.Status)
	return true, nil
}

func (m *memJobs) Delete(_ context.Context, tenantID, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked(tenantID, jobID) == nil {
		return false, nil
	}
	delete(m.rows, jobID)
	return true, nil
}

func (m *memJobs) ListUnsettled(_ context.Context) ([]domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GenerationJob
	for _, row := range m.rows {
		if !row.Status.Terminal() {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memJobs) statusHistory(jobID string) []domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.JobStatus(nil), m.history[jobID]...)
}

type memAssets struct {
	mu      sync.Mutex
	rows    map[string][]domain.Asset
	saveErr error
}

func newMemAssets() *memAssets {
	return &memAssets{rows: make(map[string][]domain.Asset)}
}

func (m *memAssets) SaveAll(_ context.Context, assets []domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, a := range assets {
		m.rows[a.JobID] = append(m.rows[a.JobID], a)
	}
	return nil
}

func (m *memAssets) ListByJobID(_ context.Context, tenantID, jobID string) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, a := range m.rows[jobID] {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssets) GetByID(_ context.Context, tenantID, assetID string) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, assets := range m.rows {
		for _, a := range assets {
			if a.ID == assetID && a.TenantID == tenantID {
				cp := a
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAssets) DeleteByJobID(_ context.Context, tenantID, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, jobID)
	return nil
}

func (m *memAssets) variants(jobID string) []domain.AssetVariant {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AssetVariant
	for _, a := range m.rows[jobID] {
		out = append(out, a.Variant)
	}
	return out
}

type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	writeErr []error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Write(_ context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writeErr) > 0 {
		err := m.writeErr[0]
		m.writeErr = m.writeErr[1:]
		if err != nil {
			return "", err
		}
	}
	m.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *memStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) DeleteAll(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memStore) URL(key string) string { return "/media/" + key }

// stubResolver serves canned reference images keyed by "id|source_type".
type stubResolver struct {
	mu      sync.Mutex
	images  map[string]resolver.ResolvedImage
	fetched []domain.SourceReference
}

func newStubResolver() *stubResolver {
	return &stubResolver{images: make(map[string]resolver.ResolvedImage)}
}

func refKey(ref domain.SourceReference) string {
	return ref.ID + "|" + string(ref.SourceType)
}

func (r *stubResolver) add(ref domain.SourceReference, img resolver.ResolvedImage) {
	r.images[refKey(ref)] = img
}

func (r *stubResolver) Fetch(_ context.Context, tenantID string, ref domain.SourceReference) (*resolver.ResolvedImage, error) {
	r.mu.Lock()
	r.fetched = append(r.fetched, ref)
	img, ok := r.images[refKey(ref)]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("resolve %s reference %q: %w", ref.SourceType, ref.ID, domain.ErrNotFound)
	}
	return &img, nil
}

func (r *stubResolver) FetchMany(ctx context.Context, tenantID string, refs []domain.SourceReference) ([]resolver.ResolvedImage, error) {
	out := make([]resolver.ResolvedImage, len(refs))
	for i, ref := range refs {
		img, err := r.Fetch(ctx, tenantID, ref)
		if err != nil {
			return nil, err
		}
		out[i] = *img
	}
	return out, nil
}

type statusStep struct {
	status video.Status
	err    error
}

// stubVideo scripts the backend: CheckStatus walks the script and then keeps
// repeating the last step; an empty script means "running forever".
type stubVideo struct {
	mu          sync.Mutex
	submitID    string
	submitErr   error
	submitCalls int
	lastSubmit  video.SubmitRequest
	script      []statusStep
	statusCalls int
	outputData  []byte
	outputMIME  string
	outputErrs  []error
	outputCalls int
	thumbData   []byte
	thumbMIME   string
	thumbErr    error
}

func newStubVideo() *stubVideo {
	return &stubVideo{
		submitID:   "ext-1",
		outputData: []byte("rendered-video-bytes"),
		outputMIME: "video/mp4",
		thumbData:  []byte("thumb-bytes"),
		thumbMIME:  "image/png",
	}
}

func (v *stubVideo) Submit(_ context.Context, req video.SubmitRequest) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submitCalls++
	v.lastSubmit = req
	if v.submitErr != nil {
		return "", v.submitErr
	}
	return v.submitID, nil
}

func (v *stubVideo) CheckStatus(_ context.Context, externalID string) (video.Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.statusCalls
	v.statusCalls++
	if len(v.script) == 0 {
		return video.Status{State: video.StateRunning, Progress: 10}, nil
	}
	if idx >= len(v.script) {
		idx = len(v.script) - 1
	}
	step := v.script[idx]
	return step.status, step.err
}

func (v *stubVideo) DownloadAsset(_ context.Context, externalID, variant string) ([]byte, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if variant == video.VariantThumbnail {
		if v.thumbErr != nil {
			return nil, "", v.thumbErr
		}
		return v.thumbData, v.thumbMIME, nil
	}
	v.outputCalls++
	if len(v.outputErrs) > 0 {
		err := v.outputErrs[0]
		v.outputErrs = v.outputErrs[1:]
		if err != nil {
			return nil, "", err
		}
	}
	return v.outputData, v.outputMIME, nil
}

func (v *stubVideo) statusCallCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.statusCalls
}

func (v *stubVideo) submitCallCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitCalls
}

type stubImage struct {
	mu      sync.Mutex
	result  image.Result
	err     error
	calls   int
	lastReq image.GenerateRequest
}

func (g *stubImage) Generate(_ context.Context, req image.GenerateRequest) (image.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return image.Result{}, g.err
	}
	return g.result, nil
}

type fixture struct {
	jobs   *memJobs
	assets *memAssets
	store  *memStore
	src    *stubResolver
	video  *stubVideo
	image  *stubImage
	svc    *Service
}

func testConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 60,
		StorageRetries:  3,
		RetryBackoff:    time.Millisecond,
	}
}

func newTestFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		jobs:   newMemJobs(),
		assets: newMemAssets(),
		store:  newMemStore(),
		src:    newStubResolver(),
		video:  newStubVideo(),
		image:  &stubImage{result: image.Result{Data: testPNG(t, 800, 800), MIMEType: "image/png"}},
	}
	discard := zerolog.New(io.Discard)
	logger := infra.Logger(discard)
	f.svc = New(cfg, Deps{
		Jobs:    f.jobs,
		Assets:  f.assets,
		Store:   f.store,
		Sources: f.src,
		Video:   f.video,
		Image:   f.image,
	}, &logger)
	t.Cleanup(f.svc.Close)
	return f
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, width, height))
	for x := 0; x < width; x += 2 {
		img.Set(x, 0, stdimage.White)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

func waitForStatus(t *testing.T, jobs *memJobs, tenantID, jobID string, want domain.JobStatus) *domain.GenerationJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetByID(context.Background(), tenantID, jobID)
		if err == nil {
			if job.Status == want {
				return job
			}
			if job.Status.Terminal() {
				t.Fatalf("job settled as %s (error %q), want %s", job.Status, job.ErrorMessage, want)
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for job %s to reach %s", jobID, want)
	return nil
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func waitForExternalID(t *testing.T, jobs *memJobs, tenantID, jobID string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetByID(context.Background(), tenantID, jobID)
		if err == nil && job.ExternalJobID != "" {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for job %s to get an external id", jobID)
}

func assertStatusSequence(t *testing.T, history []domain.JobStatus) {
	t.Helper()
	terminal := [][]domain.JobStatus{
		{domain.JobStatusQueued, domain.JobStatusInProgress, domain.JobStatusCompleted},
		{domain.JobStatusQueued, domain.JobStatusInProgress, domain.JobStatusFailed},
	}
	for _, full := range terminal {
		if isSubsequenceOf(history, full) {
			return
		}
	}
	t.Fatalf("status history %v is not a forward-only sequence", history)
}

func isSubsequenceOf(history, full []domain.JobStatus) bool {
	j := 0
	for _, st := range history {
		for j < len(full) && full[j] != st {
			j++
		}
		if j == len(full) {
			return false
		}
		j++
	}
	return true
}
