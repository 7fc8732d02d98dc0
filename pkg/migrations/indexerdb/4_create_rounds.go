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
		log.Println("creating rounds table...")
		if err := mghelper.CreateSchema(ctx, db, &store.Round{}); err != nil {
			return err
		}
		// Implicit rounds have no on-chain id, so uniqueness only applies to
		// rows that came from a RoundCreated event.
		_, err := db.ExecContext(ctx,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_on_chain_session
			 ON rounds (on_chain_id, session_id)
			 WHERE on_chain_id IS NOT NULL`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping rounds table...")
		return mghelper.DropTables(ctx, db, &store.Round{})
	})
}
