package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusv/decksched/internal/db"
)

func TestOpen_AppliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := db.Open(path)
	require.NoError(t, err)

	for _, table := range []string{"collection", "deck_configs", "decks", "cards", "revlog"} {
		var name string
		err := database.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
	require.NoError(t, database.Close())

	// reopening must skip the already-applied migrations
	database, err = db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	var applied int
	err = database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
}

func TestBootstrap_CreatesCollectionOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	crt, err := database.Bootstrap(context.Background(), 1767240000)
	require.NoError(t, err)
	assert.Equal(t, int64(1767240000), crt)

	// a second bootstrap keeps the original creation time
	crt, err = database.Bootstrap(context.Background(), 9999999999)
	require.NoError(t, err)
	assert.Equal(t, int64(1767240000), crt)

	var decks, configs int
	require.NoError(t, database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM decks`).Scan(&decks))
	require.NoError(t, database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM deck_configs`).Scan(&configs))
	assert.Equal(t, 1, decks, "bootstrap seeds exactly one default deck")
	assert.Equal(t, 1, configs)
}
