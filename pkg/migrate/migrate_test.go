package migrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"001_create_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER)")},
		"001_create_a.down.sql": {Data: []byte("DROP TABLE a")},
		"002_create_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER)")},
		"002_create_b.down.sql": {Data: []byte("DROP TABLE b")},
		"README.md":             {Data: []byte("not a migration")},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
	return n == 1
}

func TestFSProviderGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testFS(), "").GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create a", migrations[0].Name)
	assert.Equal(t, "DROP TABLE a", migrations[0].Down)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), ""), nil)

	pending, err := m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, m.MigrateUp())
	v, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.True(t, tableExists(t, db, "a"))
	assert.True(t, tableExists(t, db, "b"))

	// running again is a no-op
	require.NoError(t, m.MigrateUp())

	require.NoError(t, m.MigrateDown(1))
	v, err = m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, tableExists(t, db, "b"))

	require.NoError(t, m.MigrateTo(0))
	assert.False(t, tableExists(t, db, "a"))

	assert.Error(t, m.MigrateDown(0))
}

func TestMigrationFailureRollsBack(t *testing.T) {
	db := openDB(t)
	fsys := testFS()
	fsys["003_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE")}
	m := NewMigrator(db, NewFSProvider(fsys, ""), nil)

	assert.Error(t, m.MigrateUp())

	v, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
