package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStorage(root, PrefixMaterials, PrefixUploads, PrefixQR)
	require.NoError(t, err)
	return s, root
}

func TestLocalStorageCreatesPrefixes(t *testing.T) {
	_, root := newTestStorage(t)

	for _, p := range []string{PrefixMaterials, PrefixUploads, PrefixQR} {
		info, err := os.Stat(filepath.Join(root, p))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	s, root := newTestStorage(t)
	ctx := context.Background()

	err := s.Save(ctx, "uploads/evidence_7_20250101_120000.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "uploads", "evidence_7_20250101_120000.png"))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "uploads/evidence_7_20250101_120000.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "uploads/evidence_7_20250101_120000.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, "uploads/evidence_7_20250101_120000.png"))
	ok, err = s.Exists(ctx, "uploads/evidence_7_20250101_120000.png")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is not an error
	require.NoError(t, s.Delete(ctx, "uploads/evidence_7_20250101_120000.png"))
}

func TestLocalStorageOverwrite(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "qr/a.png", strings.NewReader("first")))
	require.NoError(t, s.Save(ctx, "qr/a.png", strings.NewReader("second")))

	rc, err := s.Open(ctx, "qr/a.png")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorageOpenMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Open(context.Background(), "materials/nope.png")
	assert.ErrorIs(t, err, ErrNotFound)

	// Directories are not blobs
	_, err = s.Open(context.Background(), "materials")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", "../secret", "uploads/../../etc/passwd", "/abs", "uploads//x", `uploads\x`} {
		t.Run(key, func(t *testing.T) {
			err := s.Save(ctx, key, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidPath)

			_, err = s.Open(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}
