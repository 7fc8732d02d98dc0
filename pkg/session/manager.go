// Package session resolves the chain session an indexer process runs
// under. The session identity binds indexed data to one specific chain
// instance: the anchor contract's address plus the hash of its deployment
// block. Block numbers alone do not discriminate chain instances on dev
// chains that restart from low heights.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/manifest"
	"github.com/grantsync/indexer/pkg/store"
)

// Manager resolves chain sessions against the store
type Manager struct {
	client chain.Client
	store  store.Store
	logger *zap.Logger
}

// NewManager creates a session manager
func NewManager(client chain.Client, st store.Store, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		store:  st,
		logger: logger,
	}
}

// GetOrCreateSession locates the anchor contract's deployment block,
// derives the session key from its block hash and resolves the session
// row. The error is fatal to the caller: no event processing may happen
// without a resolved session.
func (m *Manager) GetOrCreateSession(ctx context.Context, contract *manifest.Contract) (*store.ChainSession, error) {
	block, err := chain.FindDeploymentBlock(ctx, m.client, contract.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to locate deployment of %s at %s: %w", contract.Name, contract.Address, err)
	}

	info, err := m.client.BlockInfo(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment block %d: %w", block, err)
	}

	candidate := &store.ChainSession{
		ContractAddress:     contract.Addr().Hex(),
		DeploymentBlock:     int64(block),
		DeploymentBlockHash: info.Hash.Hex(),
		CreatedAt:           time.Now().UTC(),
	}

	session, err := m.store.GetOrCreateSession(ctx, candidate)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Resolved chain session",
		zap.String("session_id", session.ID),
		zap.String("contract", contract.Name),
		zap.String("address", session.ContractAddress),
		zap.Int64("deployment_block", session.DeploymentBlock),
		zap.String("deployment_block_hash", session.DeploymentBlockHash))

	return session, nil
}
