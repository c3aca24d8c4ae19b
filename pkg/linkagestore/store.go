package linkagestore

import (
	"context"
	"errors"

	"github.com/balai/budget-middleware/pkg/linkage"
)

// ErrNotLinked is returned when a user has no stored linkage.
// Callers must not fabricate a cursor in response.
var ErrNotLinked = errors.New("user is not linked to a provider item")

// Store defines linkage and sync-cursor persistence.
//
// The cursor only ever moves forward via AdvanceCursor after a fully applied
// sync batch; Upsert (re-link) is the single path that resets it.
type Store interface {
	Get(ctx context.Context, userID int64) (*linkage.Linkage, error)
	GetByItemID(ctx context.Context, itemID string) (*linkage.Linkage, error)
	// Upsert creates the linkage on first link and rotates the credential on
	// re-link. Re-linking clears the cursor so the next incremental sync
	// starts from the beginning of the stream.
	Upsert(ctx context.Context, lnk *linkage.Linkage) error
	// AdvanceCursor swaps the stored cursor from `from` to `to` with an
	// optimistic compare-and-swap. It returns false when the stored cursor no
	// longer equals `from`, meaning a concurrent sync advanced it first.
	// An empty `from` matches the never-synced (null) cursor.
	AdvanceCursor(ctx context.Context, userID int64, from, to string) (bool, error)
	Delete(ctx context.Context, userID int64) error
}
