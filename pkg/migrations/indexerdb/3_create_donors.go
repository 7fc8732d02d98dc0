package indexerdb

import (
	"context"
	"log"

	mghelper "github.com/grantsync/indexer/pkg/pgutil/migrations"
	"github.com/grantsync/indexer/pkg/store"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating donors table...")
		if err := mghelper.CreateSchema(ctx, db, &store.Donor{}); err != nil {
			return err
		}
		return mghelper.CreateModelUniqueIndex(ctx, db, &store.Donor{},
			"idx_donors_address_session", "address", "session_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping donors table...")
		return mghelper.DropTables(ctx, db, &store.Donor{})
	})
}
