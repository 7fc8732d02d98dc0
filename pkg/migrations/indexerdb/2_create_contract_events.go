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
		log.Println("creating contract_events table...")
		// The composite primary key (tx_hash, log_index, session_id) is the
		// idempotency guarantee for redelivered logs.
		if err := mghelper.CreateSchema(ctx, db, &store.ContractEvent{}); err != nil {
			return err
		}
		_, err := db.NewCreateIndex().
			Model(&store.ContractEvent{}).
			Index("idx_contract_events_session_block").
			Column("session_id", "block_number").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping contract_events table...")
		return mghelper.DropTables(ctx, db, &store.ContractEvent{})
	})
}
