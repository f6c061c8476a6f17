package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/sqlinline"
)

func assetRowValues(id, jobID string, variant domain.AssetVariant) []any {
	created := time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC)
	return []any{
		id, jobID, "tenant-1", string(variant),
		"image/png", int64(2048), "tenant-1/" + jobID + "/" + string(variant) + ".png",
		created,
	}
}

func TestAssetSaveAllInsertsEachRow(t *testing.T) {
	db := &stubDB{}
	r := NewAssetRepository(db)

	assets := []domain.Asset{
		{ID: "a-1", JobID: "job-1", TenantID: "tenant-1", Variant: domain.AssetVariantOutput, MIMEType: "video/mp4", SizeBytes: 9000, StorageKey: "tenant-1/job-1/output.mp4"},
		{ID: "a-2", JobID: "job-1", TenantID: "tenant-1", Variant: domain.AssetVariantThumbnail, MIMEType: "image/png", SizeBytes: 512, StorageKey: "tenant-1/job-1/thumbnail.png"},
	}
	if err := r.SaveAll(context.Background(), assets); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if len(db.calls) != 2 {
		t.Fatalf("expected one insert per asset, got %d calls", len(db.calls))
	}
	for i, call := range db.calls {
		if call.query != sqlinline.QAssetInsert {
			t.Fatalf("call %d issued unexpected query", i)
		}
		if call.args[0] != assets[i].ID || call.args[3] != string(assets[i].Variant) {
			t.Fatalf("call %d args = %v", i, call.args)
		}
	}
}

func TestAssetListByJobIDMapsRows(t *testing.T) {
	rows := &fakeRows{rows: [][]any{
		assetRowValues("a-1", "job-1", domain.AssetVariantSource),
		assetRowValues("a-2", "job-1", domain.AssetVariantOutput),
	}}
	db := &stubDB{rows: rows}
	r := NewAssetRepository(db)

	assets, err := r.ListByJobID(context.Background(), "tenant-1", "job-1")
	if err != nil {
		t.Fatalf("ListByJobID: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].Variant != domain.AssetVariantSource || assets[1].Variant != domain.AssetVariantOutput {
		t.Fatalf("variant mapping broken: %+v", assets)
	}
	if assets[0].SizeBytes != 2048 {
		t.Fatalf("size not scanned: %d", assets[0].SizeBytes)
	}
}

func TestAssetGetByIDTranslatesNoRows(t *testing.T) {
	db := &stubDB{}
	r := NewAssetRepository(db)

	if _, err := r.GetByID(context.Background(), "tenant-1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsSummaryScansAggregates(t *testing.T) {
	vals := []any{int64(10), int64(6), int64(2), int64(2), int64(4), int64(2), int64(3)}
	db := &stubDB{row: simpleRow{scan: func(dest ...any) error { return assignRow(dest, vals) }}}
	r := NewStatsRepository(db)

	stats, err := r.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stats.TotalJobs != 10 || stats.Completed != 6 || stats.InFlight != 2 {
		t.Fatalf("aggregate mapping broken: %+v", stats)
	}
	if stats.VideosCompleted != 4 || stats.ImagesCompleted != 2 || stats.CompletedLast24 != 3 {
		t.Fatalf("per-family split broken: %+v", stats)
	}
}
