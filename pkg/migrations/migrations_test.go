package migrations_test

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/grantsync/indexer/pkg/migrations/indexerdb"
	"github.com/grantsync/indexer/pkg/pgutil"
)

func TestIndexerDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected migrations to run, but none were applied")
	}

	expectedTables := []string{
		"chain_sessions",
		"contract_events",
		"donors",
		"rounds",
		"proposals",
		"donations",
		"cursors",
		"bun_migrations",
	}
	for _, table := range expectedTables {
		pgutil.AssertTableExists(t, db, table)
	}

	pgutil.AssertIndexExists(t, db, "idx_chain_sessions_identity")
	pgutil.AssertIndexExists(t, db, "idx_contract_events_session_block")
	pgutil.AssertIndexExists(t, db, "idx_donors_address_session")
	pgutil.AssertIndexExists(t, db, "idx_rounds_on_chain_session")
	pgutil.AssertIndexExists(t, db, "idx_proposals_on_chain_session")
}

func TestIndexerDBMigrations_Idempotency(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("First Migrate() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Second Migrate() failed: %v", err)
	}
	if !group.IsZero() {
		t.Error("Expected no new migrations on second run")
	}

	pgutil.AssertTableExists(t, db, "chain_sessions")
	pgutil.AssertTableExists(t, db, "contract_events")
}

func TestIndexerDBMigrations_Rollback(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "proposals")

	// Migrate() applies everything in one group, so a rollback drops it all
	group, err := migrator.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected rollback to process a migration")
	}

	pgutil.AssertTableNotExists(t, db, "cursors")
	pgutil.AssertTableNotExists(t, db, "donations")
	pgutil.AssertTableNotExists(t, db, "proposals")
	pgutil.AssertTableNotExists(t, db, "rounds")
	pgutil.AssertTableNotExists(t, db, "donors")
	pgutil.AssertTableNotExists(t, db, "contract_events")
	pgutil.AssertTableNotExists(t, db, "chain_sessions")
}
