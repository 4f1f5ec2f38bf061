package files

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestWriteZip(t *testing.T) {
	svc := newTestService(t, nil)
	writeFile(t, filepath.Join(svc.Root, "Text", "a.txt"), "aaa")
	writeFile(t, filepath.Join(svc.Root, "Text", "sub", "b.txt"), "bbb")

	var buf bytes.Buffer
	require.NoError(t, svc.WriteZip(&buf, "Text"))

	assert.ElementsMatch(t, []string{"Text/a.txt", "Text/sub/b.txt"}, zipNames(t, buf.Bytes()))
}

func TestWriteZipExcludesThumbnailSubtree(t *testing.T) {
	svc := newTestService(t, nil)
	writeFile(t, filepath.Join(svc.Root, "Images", "pic.png"), "p")
	// A stray thumbnail tree inside the category must still be excluded.
	writeFile(t, filepath.Join(svc.Root, "Images", ThumbDirName, "pic.jpg"), "t")

	var buf bytes.Buffer
	require.NoError(t, svc.WriteZip(&buf, "Images"))

	assert.Equal(t, []string{"Images/pic.png"}, zipNames(t, buf.Bytes()))
}

func TestWriteZipRejectsBadFolders(t *testing.T) {
	svc := newTestService(t, nil)

	var buf bytes.Buffer
	assert.ErrorIs(t, svc.WriteZip(&buf, ""), ErrInvalidPath)
	assert.ErrorIs(t, svc.WriteZip(&buf, "a/b"), ErrInvalidPath)
	assert.ErrorIs(t, svc.WriteZip(&buf, ThumbDirName), ErrInvalidPath)
	assert.ErrorIs(t, svc.WriteZip(&buf, "Missing"), ErrNotFound)
}
