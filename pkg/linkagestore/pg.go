package linkagestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/linkage"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the linkage store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Get(ctx context.Context, userID int64) (*linkage.Linkage, error) {
	dao := new(LinkageDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotLinked
		}
		return nil, fmt.Errorf("failed to get linkage: %w", err)
	}
	return toLinkage(dao), nil
}

func (s *pgStore) GetByItemID(ctx context.Context, itemID string) (*linkage.Linkage, error) {
	dao := new(LinkageDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("item_id = ?", itemID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotLinked
		}
		return nil, fmt.Errorf("failed to get linkage by item: %w", err)
	}
	return toLinkage(dao), nil
}

func (s *pgStore) Upsert(ctx context.Context, lnk *linkage.Linkage) error {
	dao := toLinkageDao(lnk)

	// Re-link rotates the credential and clears the cursor: the new item's
	// transaction stream starts over from the beginning.
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (user_id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("item_id = EXCLUDED.item_id").
		Set("cursor = NULL").
		Set("updated_at = NOW()").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert linkage: %w", err)
	}

	lnk.ID = dao.ID
	return nil
}

func (s *pgStore) AdvanceCursor(ctx context.Context, userID int64, from, to string) (bool, error) {
	q := s.db.NewUpdate().
		Model((*LinkageDao)(nil)).
		Set("cursor = ?", to).
		Set("updated_at = NOW()").
		Where("user_id = ?", userID)

	// NULL-safe compare: an empty `from` matches the never-synced cursor.
	if from == "" {
		q = q.Where("cursor IS NULL")
	} else {
		q = q.Where("cursor = ?", from)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to advance cursor: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (s *pgStore) Delete(ctx context.Context, userID int64) error {
	_, err := s.db.NewDelete().
		Model((*LinkageDao)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete linkage: %w", err)
	}
	return nil
}
