package testsupport

import (
	"testing"

	"shelfward/internal/config"
	"shelfward/internal/inventory"
)

// MustOpenStore opens an inventory.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *inventory.Store {
	t.Helper()

	store, err := inventory.Open(cfg)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
