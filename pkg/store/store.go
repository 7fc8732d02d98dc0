// Package store persists chain sessions, raw contract events and the
// domain projections derived from them. Every lookup and upsert that
// touches projection state is scoped by session id; nothing in this
// package ever queries by an on-chain id alone.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProposalNotFound indicates no proposal projection exists for the
// given (on_chain_id, session_id) pair
var ErrProposalNotFound = errors.New("proposal not found")

// Store is the repository surface consumed by the session manager, the
// event processor and the loops. Implementations must enforce the
// idempotency key (tx_hash, log_index, session_id) with a store-level
// uniqueness constraint, not just application checks.
type Store interface {
	// GetOrCreateSession resolves the session keyed by the candidate's
	// (contract_address, deployment_block_hash), creating it when absent.
	GetOrCreateSession(ctx context.Context, candidate *ChainSession) (*ChainSession, error)

	// GetCursor returns the tail cursor for a session; ok is false when
	// the session has never been tailed.
	GetCursor(ctx context.Context, sessionID string) (block uint64, ok bool, err error)
	// SetCursor records the last fully processed block for a session
	SetCursor(ctx context.Context, sessionID string, block uint64) error

	// InsertEvent stores a raw event. It returns false without error when
	// the row already exists (duplicate delivery).
	InsertEvent(ctx context.Context, ev *ContractEvent) (inserted bool, err error)

	// GetProposal looks up a proposal by its session-scoped on-chain id.
	// Returns ErrProposalNotFound when absent.
	GetProposal(ctx context.Context, onChainID int64, sessionID string) (*Proposal, error)
	// UpsertProposal inserts or refreshes a proposal projection keyed by
	// (on_chain_id, session_id)
	UpsertProposal(ctx context.Context, p *Proposal) error
	// UpdateProposalStatus sets the status of a session-scoped proposal
	UpdateProposalStatus(ctx context.Context, onChainID int64, sessionID string, status ProposalStatus) error
	// AddDonationToProposal increments a proposal's aggregate total and
	// donation count
	AddDonationToProposal(ctx context.Context, proposalID int64, amount decimal.Decimal) error

	// GetOrCreateDonor resolves a donor identity by (address, session_id)
	GetOrCreateDonor(ctx context.Context, address, sessionID string) (*Donor, error)

	// GetOrCreateOpenRound returns the open round for a session, creating
	// an implicit one when none is open
	GetOrCreateOpenRound(ctx context.Context, sessionID string) (*Round, error)
	// UpsertRound inserts or refreshes a round projection keyed by
	// (on_chain_id, session_id)
	UpsertRound(ctx context.Context, r *Round) error

	// InsertDonation stores one donation row
	InsertDonation(ctx context.Context, d *Donation) error

	// RunInTx runs fn within a single database transaction; the Store
	// passed to fn is scoped to that transaction
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
