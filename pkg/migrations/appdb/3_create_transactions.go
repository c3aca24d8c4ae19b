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
		log.Println("creating transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &ledgerstore.TransactionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &ledgerstore.TransactionDao{}, "account_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerstore.TransactionDao{}, "date")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transactions table...")
		return mghelper.DropTables(ctx, db, &ledgerstore.TransactionDao{})
	})
}
