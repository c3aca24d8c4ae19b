// Package linkage defines the durable association between a user and an
// external banking item: the encrypted access credential plus the resumable
// transaction-stream cursor.
package linkage

import "time"

// Linkage associates one user with one external banking item.
// AccessToken holds the encrypted provider credential. Cursor is the opaque
// resumable position of the provider's transaction stream; empty means the
// linkage has never completed an incremental sync.
type Linkage struct {
	ID          int64
	UserID      int64
	AccessToken string
	ItemID      string
	Cursor      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
