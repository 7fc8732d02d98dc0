package store

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// ChainSession identifies one indexing epoch. A session is keyed by the
// anchor contract address together with the hash of its deployment block,
// so a redeploy at the same address on a fresh chain yields a new session.
type ChainSession struct {
	bun.BaseModel `bun:"table:chain_sessions"`

	ID                  string    `bun:"id,pk"`
	ContractAddress     string    `bun:"contract_address,notnull"`
	DeploymentBlock     int64     `bun:"deployment_block,notnull"`
	DeploymentBlockHash string    `bun:"deployment_block_hash,notnull"`
	CreatedAt           time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ContractEvent is the append-only audit record of one decoded log entry.
// (tx_hash, log_index, session_id) is the idempotency key; the composite
// primary key enforces it at the store level.
type ContractEvent struct {
	bun.BaseModel `bun:"table:contract_events"`

	TxHash         string         `bun:"tx_hash,pk"`
	LogIndex       int64          `bun:"log_index,pk"`
	SessionID      string         `bun:"session_id,pk"`
	EventType      string         `bun:"event_type,notnull"`
	BlockNumber    int64          `bun:"block_number,notnull"`
	BlockTimestamp time.Time      `bun:"block_timestamp,notnull"`
	Args           map[string]any `bun:"args,type:jsonb"`
	ObservedAt     time.Time      `bun:"observed_at,notnull,default:current_timestamp"`
}

// ProposalStatus is the lifecycle state of a funding proposal projection
type ProposalStatus string

const (
	ProposalStatusActive ProposalStatus = "active"
	ProposalStatusPaused ProposalStatus = "paused"
	ProposalStatusClosed ProposalStatus = "closed"
)

// Proposal is the funding proposal projection. On-chain grant ids restart
// from zero on a fresh chain, so lookups are always scoped by
// (on_chain_id, session_id).
type Proposal struct {
	bun.BaseModel `bun:"table:proposals"`

	ID             int64           `bun:"id,pk,autoincrement"`
	OnChainID      int64           `bun:"on_chain_id,notnull"`
	SessionID      string          `bun:"session_id,notnull"`
	ProposerID     int64           `bun:"proposer_id,notnull"`
	RoundID        int64           `bun:"round_id,notnull"`
	MetadataURI    string          `bun:"metadata_uri"`
	Status         ProposalStatus  `bun:"status,notnull"`
	TotalDonations decimal.Decimal `bun:"total_donations,notnull,type:numeric(78,18)"`
	DonationCount  int64           `bun:"donation_count,notnull"`
	CreatedAt      time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// Donor is the identity projection for an address seen proposing or donating
type Donor struct {
	bun.BaseModel `bun:"table:donors"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Address   string    `bun:"address,notnull"`
	SessionID string    `bun:"session_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoundStatus is the lifecycle state of a funding round
type RoundStatus string

const (
	RoundStatusOpen   RoundStatus = "open"
	RoundStatusClosed RoundStatus = "closed"
)

// Round is a funding round projection. OnChainID is nil for the implicit
// round created when a grant is registered while no round is open.
type Round struct {
	bun.BaseModel `bun:"table:rounds"`

	ID        int64       `bun:"id,pk,autoincrement"`
	OnChainID *int64      `bun:"on_chain_id"`
	SessionID string      `bun:"session_id,notnull"`
	Name      string      `bun:"name,notnull"`
	Status    RoundStatus `bun:"status,notnull"`
	StartsAt  *time.Time  `bun:"starts_at"`
	EndsAt    *time.Time  `bun:"ends_at"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp"`
}

// Donation is one donation row, derived from a DonationReceived event
type Donation struct {
	bun.BaseModel `bun:"table:donations"`

	ID          int64           `bun:"id,pk,autoincrement"`
	ProposalID  int64           `bun:"proposal_id,notnull"`
	DonorID     int64           `bun:"donor_id,notnull"`
	SessionID   string          `bun:"session_id,notnull"`
	Amount      decimal.Decimal `bun:"amount,notnull,type:numeric(78,18)"`
	TxHash      string          `bun:"tx_hash,notnull"`
	LogIndex    int64           `bun:"log_index,notnull"`
	BlockNumber int64           `bun:"block_number,notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

// Cursor is the last block fully processed by the tailing loop, per session
type Cursor struct {
	bun.BaseModel `bun:"table:cursors"`

	SessionID string    `bun:"session_id,pk"`
	LastBlock int64     `bun:"last_block,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
