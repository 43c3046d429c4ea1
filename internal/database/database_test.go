package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/epack/internal/pack"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(DefaultDatabaseOptions(filepath.Join(t.TempDir(), "nested", "index.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewDDLManager(db).CreateSchema(context.Background(), nil))
	return db
}

func TestNewDatabase_Options(t *testing.T) {
	_, err := NewDatabase(nil)
	require.Error(t, err)

	_, err = NewDatabase(&DatabaseOptions{})
	require.Error(t, err)

	db, err := NewDatabase(&DatabaseOptions{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.Exec(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrClosed)
}

func TestBuildConnectionString(t *testing.T) {
	got := buildConnectionString(&DatabaseOptions{Path: "x.db", WALMode: true, BusyTimeout: 2 * time.Second})
	assert.Equal(t, "x.db?_journal_mode=WAL&_busy_timeout=2000&_synchronous=NORMAL&_cache_size=10000", got)
}

func TestDDLManager_CreateSchema(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()

	var steps []string
	require.NoError(t, NewDDLManager(db).CreateSchema(ctx, func(current, total int, description string) {
		steps = append(steps, description)
	}))
	assert.Len(t, steps, len(catalogDDL))

	tables, err := db.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets"}, tables)

	columns, err := NewDDLManager(db).TableColumns(ctx, AssetsTable)
	require.NoError(t, err)
	require.Len(t, columns, 8)
	assert.Equal(t, "name", columns[0].Name)
	assert.True(t, columns[0].PrimaryKey)
	assert.Equal(t, "modified", columns[7].Name)

	_, err = NewDDLManager(db).TableColumns(ctx, `no"such`)
	require.Error(t, err)
}

func TestBulkInserter_InsertCatalog(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()

	stamp := pack.PackTime(time.Date(2024, time.May, 1, 10, 20, 0, 0, time.Local))
	entries := []pack.HeaderEntry{
		{Name: "z.bin", Version: 3, Size: 10, OrgSize: 20, Offset: 0},
		{Name: "a.bin", Version: stamp, Size: 5, OrgSize: 9, Offset: 10, CRC: 0xFFFFFFFF},
		{Name: "m.bin", Version: 1, Size: 7, OrgSize: 7, Offset: 15},
	}

	var batches []int
	inserter := NewBulkInserter(db, &BulkInsertOptions{BatchSize: 2})
	require.NoError(t, inserter.InsertCatalog(ctx, PackageInfo{Base: "pkg", FileVersion: 1, Assets: 3}, entries,
		func(current, total int, description string) {
			batches = append(batches, current)
		}))
	assert.Equal(t, []int{2, 3}, batches)

	var count int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count))
	assert.Equal(t, 3, count)

	var (
		position int
		crc      int64
		modified sql.NullString
	)
	require.NoError(t, db.QueryRow(ctx, `SELECT position, crc, modified FROM assets WHERE name = 'a.bin'`).
		Scan(&position, &crc, &modified))
	assert.Equal(t, 1, position)
	assert.Equal(t, int64(0xFFFFFFFF), crc)
	require.True(t, modified.Valid)

	require.NoError(t, db.QueryRow(ctx, `SELECT modified FROM assets WHERE name = 'z.bin'`).Scan(&modified))
	assert.False(t, modified.Valid)

	var assets string
	require.NoError(t, db.QueryRow(ctx, `SELECT value FROM _package WHERE key = 'assets'`).Scan(&assets))
	assert.Equal(t, "3", assets)

	// reindexing replaces the previous rows
	require.NoError(t, inserter.InsertCatalog(ctx, PackageInfo{Base: "pkg", FileVersion: 1, Assets: 1}, entries[:1], nil))
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBulkInserter_FromPackage(t *testing.T) {
	db := openTestDatabase(t)
	ctx := context.Background()

	p, err := pack.Create(filepath.Join(t.TempDir(), "pkg"), nil)
	require.NoError(t, err)
	defer p.Close()
	for _, key := range []string{"one", "two", "three"} {
		require.NoError(t, p.Add([]byte(key+" payload"), key, 0))
	}

	info := PackageInfo{Base: p.BaseFilename(), FileVersion: p.FileVersion(), Assets: p.AssetCount()}
	require.NoError(t, NewBulkInserter(db, nil).InsertCatalog(ctx, info, p.Entries(), nil))

	rows, err := db.Query(ctx, `SELECT name, org_size, "offset" FROM assets ORDER BY position`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			name    string
			orgSize uint32
			offset  uint32
		)
		require.NoError(t, rows.Scan(&name, &orgSize, &offset))
		entry, ok := p.Entry(name)
		require.True(t, ok)
		assert.Equal(t, entry.OrgSize, orgSize)
		assert.Equal(t, entry.Offset, offset)
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, p.Names(), names)
}
