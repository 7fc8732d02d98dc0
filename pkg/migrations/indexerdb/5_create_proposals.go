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
		log.Println("creating proposals table...")
		if err := mghelper.CreateSchema(ctx, db, &store.Proposal{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndex(ctx, db, &store.Proposal{},
			"idx_proposals_on_chain_session", "on_chain_id", "session_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.Proposal{}, "status", "round_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping proposals table...")
		return mghelper.DropTables(ctx, db, &store.Proposal{})
	})
}
