package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcusv/decksched/internal/db"
)

// NewTestDB creates a throwaway SQLite database with all migrations
// applied and the collection bootstrapped.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { MustClose(t, database) })

	// collection creation sits at today's 04:00 rollover boundary
	now := time.Now()
	anchor := time.Date(now.Year(), now.Month(), now.Day(), 4, 0, 0, 0, now.Location())
	if now.Before(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	_, err = database.Bootstrap(context.Background(), anchor.Unix())
	require.NoError(t, err)
	return database
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
