package repo

import (
	"context"

	"mediagen/internal/domain"
	"mediagen/internal/sqlinline"
)

// StatsRepositoryPG implements domain.StatsRepository with one aggregate
// query over generation_jobs.
type StatsRepositoryPG struct {
	db DBTX
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db DBTX) *StatsRepositoryPG {
	return &StatsRepositoryPG{db: db}
}

// Summary returns aggregated generation counters.
func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.GenerationStats, error) {
	row := r.db.QueryRow(ctx, sqlinline.QStatsSummary)
	var stats domain.GenerationStats
	if err := row.Scan(
		&stats.TotalJobs,
		&stats.Completed,
		&stats.Failed,
		&stats.InFlight,
		&stats.VideosCompleted,
		&stats.ImagesCompleted,
		&stats.CompletedLast24,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

var _ domain.StatsRepository = (*StatsRepositoryPG)(nil)
