package testsupport

import (
	"testing"

	"breathein/internal/config"
	"breathein/internal/slotstore"
)

// MustOpenSlotStore opens the slot dedupe store for tests and registers cleanup.
func MustOpenSlotStore(t testing.TB, cfg *config.Config) *slotstore.Store {
	t.Helper()

	store, err := slotstore.Open(cfg.SlotDBPath())
	if err != nil {
		t.Fatalf("slotstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
