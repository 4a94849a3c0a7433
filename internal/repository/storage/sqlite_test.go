package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("Creates the schema", func(t *testing.T) {
		// Given: a fresh database file
		db, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "agents.db"))
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Close()
		})

		// When: initializing it twice
		require.NoError(t, db.Init(context.Background()))
		require.NoError(t, db.Init(context.Background()))

		// Then: every table is queryable
		for _, table := range []string{"agents", "q_values", "rewards"} {
			var count int
			require.NoError(t, db.Connection.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
			assert.Zero(t, count, table)
		}
	})

	t.Run("Unreachable path fails to connect", func(t *testing.T) {
		// Given: a database inside a directory that does not exist
		path := filepath.Join(t.TempDir(), "missing", "agents.db")

		// When: opening it
		db, err := NewSQLiteStorage(path)

		// Then: the connection is refused and nothing is returned
		require.Error(t, err)
		assert.Nil(t, db)
	})
}
