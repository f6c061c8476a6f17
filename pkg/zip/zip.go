// Package zip bundles generated artifacts into a single downloadable
// archive.
package zip

import (
	"archive/zip"
	"bytes"
	"path"
)

// Asset is one file to place in the archive. When Filename carries no
// extension, one is derived from MIME so extracted files open correctly.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// ArchiveAssets encodes the given assets into an in-memory zip archive.
// Entries that fail to encode are skipped.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(entryName(asset))
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

func entryName(asset Asset) string {
	name := asset.Filename
	if name == "" {
		name = "asset"
	}
	if path.Ext(name) == "" {
		name += mimeExtensions[asset.MIME]
	}
	return name
}
