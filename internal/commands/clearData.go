package commands

import (
	"fmt"

	"chatpad/internal/storage"
)

type remover interface {
	RemoveMany(keys ...string) error
}

// ClearData removes every persisted record: conversations, favorites and
// preferences. The removal is best effort; the underlying store gives no
// all-or-nothing guarantee, so partial failures are reported, not retried.
// The next start falls back to the seed dataset and default preferences.
func ClearData(gw remover) error {
	if err := gw.RemoveMany(storage.Keys()...); err != nil {
		return fmt.Errorf("failed to clear chat data: %w", err)
	}

	fmt.Println("All chat data cleared. Next start will use the built-in seed dataset.")
	return nil
}
