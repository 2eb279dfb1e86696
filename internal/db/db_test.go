package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsSQLite(t *testing.T) {
	ctx := context.Background()

	database, err := Init("sqlite", ":memory:")
	require.NoError(t, err)
	defer Close(database)

	require.NoError(t, RunMigrations(ctx, database.DB, "sqlite"))

	states, err := MigrationStatus(ctx, database.DB, "sqlite")
	require.NoError(t, err)
	require.Len(t, states, 2)
	for _, s := range states {
		assert.True(t, s.Applied, "migration %d", s.Version)
	}

	_, err = database.Exec(`INSERT INTO materials (id, name) VALUES (1, 'poster')`)
	require.NoError(t, err)

	// Status is constrained to the three review states
	_, err = database.Exec(`INSERT INTO evidence (id, seq, material_id, screenshot, url, status, "timestamp")
		VALUES ('1_x', 1, 1, 's.png', 'http://x', 'archived', '20250101_000000')`)
	assert.Error(t, err)

	require.NoError(t, MigrateDown(ctx, database.DB, "sqlite"))
	states, err = MigrationStatus(ctx, database.DB, "sqlite")
	require.NoError(t, err)
	assert.False(t, states[1].Applied)
	assert.True(t, states[0].Applied)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := newProvider(nil, "mysql")
	assert.Error(t, err)
}

func TestPoolFor(t *testing.T) {
	assert.Equal(t, pool{MaxOpen: 1, MaxIdle: 1}, poolFor("sqlite"))
	assert.Zero(t, poolFor("sqlite").MaxLifetime, "in-memory databases must keep their only connection")

	pg := poolFor("pgx")
	assert.Equal(t, 25, pg.MaxOpen)
	assert.Equal(t, 5*time.Minute, pg.MaxLifetime)
}

func TestInitSQLiteKeepsOneConnection(t *testing.T) {
	database, err := Init("sqlite", ":memory:")
	require.NoError(t, err)
	defer Close(database)

	_, err = database.Exec(`CREATE TABLE kept (id INTEGER)`)
	require.NoError(t, err)

	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM kept`))
	assert.Zero(t, n)
}
