package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	t.Run("InMemory", func(t *testing.T) {
		db, err := NewDB(MemoryPath)
		require.NoError(t, err)
		defer db.Close()

		var name string
		err = db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv_records'`).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "kv_records", name)
	})

	t.Run("FileIsMigratedOnce", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "mealprep.db")

		db, err := NewDB(path)
		require.NoError(t, err)
		_, err = db.SQL.Exec(`INSERT INTO kv_records (key, value, updated_at) VALUES ('k', 'v', CURRENT_TIMESTAMP)`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// Reopening must not fail on an already-applied migration nor drop data.
		db, err = NewDB(path)
		require.NoError(t, err)
		defer db.Close()

		var count int
		require.NoError(t, db.SQL.QueryRow(`SELECT COUNT(*) FROM kv_records`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}
