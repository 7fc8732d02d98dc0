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
		log.Println("creating donations table...")
		if err := mghelper.CreateSchema(ctx, db, &store.Donation{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.Donation{}, "proposal_id", "donor_id", "session_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping donations table...")
		return mghelper.DropTables(ctx, db, &store.Donation{})
	})
}
