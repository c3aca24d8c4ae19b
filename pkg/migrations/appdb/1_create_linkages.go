package appdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/linkagestore"
	mghelper "github.com/balai/budget-middleware/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating linkages table...")
		// item_id resolves webhook deliveries to exactly one linkage; the
		// unique constraint doubles as the lookup index. NULLs (never linked)
		// do not collide.
		return mghelper.CreateSchema(ctx, db, &linkagestore.LinkageDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping linkages table...")
		return mghelper.DropTables(ctx, db, &linkagestore.LinkageDao{})
	})
}
