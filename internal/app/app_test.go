package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/promoproof/internal/config"
)

func testConfig(t *testing.T, storeDriver string) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:       t.TempDir(),
		StoreDriver:   storeDriver,
		DBConnection:  ":memory:",
		StorageDriver: "local",
		MaxUploadSize: 1 << 20,
	}
}

func TestNewJSONStore(t *testing.T) {
	cfg := testConfig(t, "json")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	for _, doc := range []string{MaterialsDocument, UploadsDocument} {
		data, err := os.ReadFile(filepath.Join(cfg.DataDir, doc))
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	}

	status, err := a.StatusService.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.UploadsCount)
}

func TestNewSQLiteStore(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "sqlite"))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.DB)
	materials, err := a.CatalogService.Materials(context.Background())
	require.NoError(t, err)
	assert.Empty(t, materials)
}

func TestNewUnknownDrivers(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, "mongo"))
	assert.ErrorContains(t, err, "unknown store driver")

	cfg := testConfig(t, "json")
	cfg.StorageDriver = "ftp"
	_, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}
