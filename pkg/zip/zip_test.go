package zip

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	data, err := Archive([]Entry{
		{Name: "a.png", MIME: "image/png", Data: []byte{1, 2}},
		{Name: "a.png", MIME: "image/png", Data: []byte{3}},
		{MIME: "image/jpeg", Data: []byte{4}},
		{Name: "empty.png", MIME: "image/png"},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"a.png", "1-a.png", "image.jpg"}, names)
}

func TestExtensionForMIME(t *testing.T) {
	require.Equal(t, ".png", ExtensionForMIME("image/png"))
	require.Equal(t, ".jpg", ExtensionForMIME("image/jpeg"))
	require.Equal(t, ".bin", ExtensionForMIME("application/octet-stream"))
}
