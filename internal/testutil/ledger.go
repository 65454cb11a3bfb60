// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/ahrenberg/split-nlogo-experiment/internal/ledger"
	"github.com/stretchr/testify/require"
)

// OpenLedger opens the ledger database at path, runs migrations and closes
// it when the test ends.
func OpenLedger(t *testing.T, path string) *ledger.DB {
	t.Helper()

	cfg := ledger.DefaultConfig()
	cfg.Path = path
	database, err := ledger.Open(cfg)
	require.NoError(t, err, "failed to open ledger")
	t.Cleanup(func() { _ = database.Close() })

	_, err = database.Migrate(context.Background())
	require.NoError(t, err, "failed to run migrations")

	return database
}
