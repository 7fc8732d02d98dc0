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
		log.Println("creating chain_sessions table...")
		if err := mghelper.CreateSchema(ctx, db, &store.ChainSession{}); err != nil {
			return err
		}
		// The session identity: one row per (anchor address, deployment block hash)
		return mghelper.CreateModelUniqueIndex(ctx, db, &store.ChainSession{},
			"idx_chain_sessions_identity", "contract_address", "deployment_block_hash")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping chain_sessions table...")
		return mghelper.DropTables(ctx, db, &store.ChainSession{})
	})
}
