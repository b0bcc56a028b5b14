// Package testutil provides shared test fixtures for the upiwatch project.
package testutil

import (
	"context"
	"testing"

	"github.com/fairpay/upiwatch/internal/storage"
)

// SetupTestStore creates a migrated in-memory pending-payment store and
// registers its cleanup with the test.
func SetupTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
