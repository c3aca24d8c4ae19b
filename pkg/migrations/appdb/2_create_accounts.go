package appdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/ledgerstore"
	mghelper "github.com/balai/budget-middleware/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating accounts table...")
		if err := mghelper.CreateSchema(ctx, db, &ledgerstore.AccountDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerstore.AccountDao{}, "user_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping accounts table...")
		return mghelper.DropTables(ctx, db, &ledgerstore.AccountDao{})
	})
}
