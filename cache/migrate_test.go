package cache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/notion-schema/logger"
)

const bootstrapSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY);`

func openBare(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		want    []string
		wantErr string
	}{
		{
			name: "version order",
			fsys: fstest.MapFS{
				"002_b.sql": {Data: []byte("SELECT 2;")},
				"000_a.sql": {Data: []byte(bootstrapSQL)},
			},
			want: []string{"000", "002"},
		},
		{
			name: "shared version",
			fsys: fstest.MapFS{
				"001_a.sql": {Data: []byte("SELECT 1;")},
				"001_b.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "share version 001",
		},
		{
			name:    "bad name",
			fsys:    fstest.MapFS{"1_snapshots.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "does not match",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadMigrations(tt.fsys)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			var versions []string
			for _, m := range got {
				versions = append(versions, m.version)
			}
			assert.Equal(t, tt.want, versions)
		})
	}
}

func TestMigrate_AppliesOnlyPending(t *testing.T) {
	db := openBare(t)
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core).Sugar()

	fsys := fstest.MapFS{
		"000_bootstrap.sql": {Data: []byte(bootstrapSQL)},
		"001_notes.sql":     {Data: []byte("CREATE TABLE notes (id TEXT);")},
	}
	require.NoError(t, migrate(db, fsys, log))

	migrated := logs.FilterMessage("Schema cache migrated").All()
	require.Len(t, migrated, 1)
	assert.EqualValues(t, 2, migrated[0].ContextMap()[logger.FieldCount])

	fsys["002_tags.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE tags (id TEXT);")}
	require.NoError(t, migrate(db, fsys, log))

	applying := logs.FilterMessage("Applying cache migration").All()
	require.Len(t, applying, 3)
	assert.Equal(t, "002_tags.sql", applying[2].ContextMap()[logger.FieldFile])

	// nothing pending logs nothing
	require.NoError(t, migrate(db, fsys, log))
	assert.Len(t, logs.FilterMessage("Schema cache migrated").All(), 2)
}

func TestMigrate_RequiresBootstrap(t *testing.T) {
	db := openBare(t)
	err := migrate(db, fstest.MapFS{"001_notes.sql": {Data: []byte("CREATE TABLE notes (id TEXT);")}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations is missing")
}

func TestMigrate_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openBare(t)
	fsys := fstest.MapFS{
		"000_bootstrap.sql": {Data: []byte(bootstrapSQL)},
		"001_broken.sql":    {Data: []byte("CREATE TABLE;")},
	}
	err := migrate(db, fsys, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.sql")

	done, err := appliedVersions(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"000": true}, done)
}
