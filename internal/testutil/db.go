// Package testutil provides test utilities for registry database setup.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpdex/mcpdex/internal/registry/domain"
	"github.com/mcpdex/mcpdex/internal/registry/sqlite"
)

// NewTestRepo creates an in-memory registry database with the full schema
// applied and returns its repository. The database is closed when the test
// completes.
func NewTestRepo(t *testing.T) domain.ServerRepository {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.ServerRepository()
}
