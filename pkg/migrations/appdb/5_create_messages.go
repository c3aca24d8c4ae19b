package appdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/chatstore"
	mghelper "github.com/balai/budget-middleware/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating messages table...")
		if err := mghelper.CreateSchema(ctx, db, &chatstore.MessageDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &chatstore.MessageDao{}, "conversation_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping messages table...")
		return mghelper.DropTables(ctx, db, &chatstore.MessageDao{})
	})
}
