// Package zip bundles generated images into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type Entry struct {
	Name string
	MIME string
	Data []byte
}

// Archive writes the entries into one zip file. Entries without data are
// skipped; duplicate names get a numeric suffix so nothing is silently
// overwritten.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int)
	for _, entry := range entries {
		if len(entry.Data) == 0 {
			continue
		}
		base := entry.Name
		if base == "" {
			base = "image" + ExtensionForMIME(entry.MIME)
		}
		name := base
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%d-%s", n, base)
		}
		seen[base]++
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtensionForMIME maps the image MIME types the pipeline produces onto file
// extensions, defaulting to .bin for anything unknown.
func ExtensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
