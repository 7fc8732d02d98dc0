package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a postgres implementation of the Store interface
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) GetOrCreateSession(ctx context.Context, candidate *ChainSession) (*ChainSession, error) {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	// Insert-then-select keyed by (address, block hash) so two processes
	// starting concurrently resolve the same session.
	_, err := s.db.NewInsert().
		Model(candidate).
		On("CONFLICT (contract_address, deployment_block_hash) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain session: %w", err)
	}

	session := new(ChainSession)
	err = s.db.NewSelect().
		Model(session).
		Where("contract_address = ?", candidate.ContractAddress).
		Where("deployment_block_hash = ?", candidate.DeploymentBlockHash).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain session: %w", err)
	}

	return session, nil
}

func (s *pgStore) GetCursor(ctx context.Context, sessionID string) (uint64, bool, error) {
	cursor := new(Cursor)
	err := s.db.NewSelect().
		Model(cursor).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cursor: %w", err)
	}
	return uint64(cursor.LastBlock), true, nil
}

func (s *pgStore) SetCursor(ctx context.Context, sessionID string, block uint64) error {
	cursor := &Cursor{
		SessionID: sessionID,
		LastBlock: int64(block),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(cursor).
		On("CONFLICT (session_id) DO UPDATE").
		Set("last_block = EXCLUDED.last_block").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}

func (s *pgStore) InsertEvent(ctx context.Context, ev *ContractEvent) (bool, error) {
	res, err := s.db.NewInsert().
		Model(ev).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert contract event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rows > 0, nil
}

func (s *pgStore) GetProposal(ctx context.Context, onChainID int64, sessionID string) (*Proposal, error) {
	proposal := new(Proposal)
	err := s.db.NewSelect().
		Model(proposal).
		Where("on_chain_id = ?", onChainID).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return proposal, nil
}

func (s *pgStore) UpsertProposal(ctx context.Context, p *Proposal) error {
	_, err := s.db.NewInsert().
		Model(p).
		On("CONFLICT (on_chain_id, session_id) DO UPDATE").
		Set("metadata_uri = EXCLUDED.metadata_uri").
		Set("status = EXCLUDED.status").
		Set("updated_at = now()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert proposal: %w", err)
	}
	return nil
}

func (s *pgStore) UpdateProposalStatus(ctx context.Context, onChainID int64, sessionID string, status ProposalStatus) error {
	_, err := s.db.NewUpdate().
		Model((*Proposal)(nil)).
		Set("status = ?", status).
		Set("updated_at = now()").
		Where("on_chain_id = ?", onChainID).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	return nil
}

func (s *pgStore) AddDonationToProposal(ctx context.Context, proposalID int64, amount decimal.Decimal) error {
	_, err := s.db.NewUpdate().
		Model((*Proposal)(nil)).
		Set("total_donations = total_donations + ?", amount).
		Set("donation_count = donation_count + 1").
		Set("updated_at = now()").
		Where("id = ?", proposalID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add donation to proposal: %w", err)
	}
	return nil
}

func (s *pgStore) GetOrCreateDonor(ctx context.Context, address, sessionID string) (*Donor, error) {
	_, err := s.db.NewInsert().
		Model(&Donor{
			Address:   address,
			SessionID: sessionID,
			CreatedAt: time.Now().UTC(),
		}).
		On("CONFLICT (address, session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create donor: %w", err)
	}

	donor := new(Donor)
	err = s.db.NewSelect().
		Model(donor).
		Where("address = ?", address).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}
	return donor, nil
}

func (s *pgStore) GetOrCreateOpenRound(ctx context.Context, sessionID string) (*Round, error) {
	round := new(Round)
	err := s.db.NewSelect().
		Model(round).
		Where("session_id = ?", sessionID).
		Where("status = ?", RoundStatusOpen).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get open round: %w", err)
	}

	round = &Round{
		SessionID: sessionID,
		Name:      "default",
		Status:    RoundStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(round).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create implicit round: %w", err)
	}
	return round, nil
}

func (s *pgStore) UpsertRound(ctx context.Context, r *Round) error {
	_, err := s.db.NewInsert().
		Model(r).
		On("CONFLICT (on_chain_id, session_id) WHERE on_chain_id IS NOT NULL DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("status = EXCLUDED.status").
		Set("starts_at = EXCLUDED.starts_at").
		Set("ends_at = EXCLUDED.ends_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert round: %w", err)
	}
	return nil
}

func (s *pgStore) InsertDonation(ctx context.Context, d *Donation) error {
	if _, err := s.db.NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

func (s *pgStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	db, ok := s.db.(*bun.DB)
	if !ok {
		// Already transaction-scoped; nested calls join the outer tx.
		return fn(ctx, s)
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &pgStore{db: tx})
	})
}
