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
		log.Println("creating cursors table...")
		return mghelper.CreateSchema(ctx, db, &store.Cursor{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping cursors table...")
		return mghelper.DropTables(ctx, db, &store.Cursor{})
	})
}
