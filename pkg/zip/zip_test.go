package zip

import (
	stdzip "archive/zip"
	"bytes"
	"io"
	"testing"
)

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	entries := map[string][]byte{}
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", file.Name, err)
		}
		entries[file.Name] = content
	}
	return entries
}

func TestArchiveAssetsRoundTrips(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "output-a1b2c3d4", MIME: "video/mp4", Data: []byte("mp4-bytes")},
		{Filename: "thumbnail-a1b2c3d4", MIME: "image/png", Data: []byte("png-bytes")},
	})

	entries := readArchive(t, archive)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if string(entries["output-a1b2c3d4.mp4"]) != "mp4-bytes" {
		t.Fatalf("mp4 entry missing or wrong: %v", keys(entries))
	}
	if string(entries["thumbnail-a1b2c3d4.png"]) != "png-bytes" {
		t.Fatalf("png entry missing or wrong: %v", keys(entries))
	}
}

func TestArchiveAssetsKeepsExplicitExtension(t *testing.T) {
	archive := ArchiveAssets([]Asset{{Filename: "cover.jpg", MIME: "image/png", Data: []byte("x")}})

	entries := readArchive(t, archive)
	if _, ok := entries["cover.jpg"]; !ok {
		t.Fatalf("explicit extension must win, got %v", keys(entries))
	}
}

func TestArchiveAssetsUnknownMIME(t *testing.T) {
	archive := ArchiveAssets([]Asset{{Filename: "blob", MIME: "application/x-custom", Data: []byte("x")}})

	entries := readArchive(t, archive)
	if _, ok := entries["blob"]; !ok {
		t.Fatalf("unknown MIME should leave the name bare, got %v", keys(entries))
	}
}

func TestArchiveAssetsEmptyInput(t *testing.T) {
	entries := readArchive(t, ArchiveAssets(nil))
	if len(entries) != 0 {
		t.Fatalf("expected empty archive, got %v", keys(entries))
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
