package processor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/grantsync/indexer/pkg/store"
)

// MockStore is a mock implementation of store.Store
type MockStore struct {
	GetOrCreateSessionFunc    func(ctx context.Context, candidate *store.ChainSession) (*store.ChainSession, error)
	GetCursorFunc             func(ctx context.Context, sessionID string) (uint64, bool, error)
	SetCursorFunc             func(ctx context.Context, sessionID string, block uint64) error
	InsertEventFunc           func(ctx context.Context, ev *store.ContractEvent) (bool, error)
	GetProposalFunc           func(ctx context.Context, onChainID int64, sessionID string) (*store.Proposal, error)
	UpsertProposalFunc        func(ctx context.Context, p *store.Proposal) error
	UpdateProposalStatusFunc  func(ctx context.Context, onChainID int64, sessionID string, status store.ProposalStatus) error
	AddDonationToProposalFunc func(ctx context.Context, proposalID int64, amount decimal.Decimal) error
	GetOrCreateDonorFunc      func(ctx context.Context, address, sessionID string) (*store.Donor, error)
	GetOrCreateOpenRoundFunc  func(ctx context.Context, sessionID string) (*store.Round, error)
	UpsertRoundFunc           func(ctx context.Context, r *store.Round) error
	InsertDonationFunc        func(ctx context.Context, d *store.Donation) error
	RunInTxFunc               func(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error
}

func (m *MockStore) GetOrCreateSession(ctx context.Context, candidate *store.ChainSession) (*store.ChainSession, error) {
	if m.GetOrCreateSessionFunc != nil {
		return m.GetOrCreateSessionFunc(ctx, candidate)
	}
	return candidate, nil
}

func (m *MockStore) GetCursor(ctx context.Context, sessionID string) (uint64, bool, error) {
	if m.GetCursorFunc != nil {
		return m.GetCursorFunc(ctx, sessionID)
	}
	return 0, false, nil
}

func (m *MockStore) SetCursor(ctx context.Context, sessionID string, block uint64) error {
	if m.SetCursorFunc != nil {
		return m.SetCursorFunc(ctx, sessionID, block)
	}
	return nil
}

func (m *MockStore) InsertEvent(ctx context.Context, ev *store.ContractEvent) (bool, error) {
	if m.InsertEventFunc != nil {
		return m.InsertEventFunc(ctx, ev)
	}
	return true, nil
}

func (m *MockStore) GetProposal(ctx context.Context, onChainID int64, sessionID string) (*store.Proposal, error) {
	if m.GetProposalFunc != nil {
		return m.GetProposalFunc(ctx, onChainID, sessionID)
	}
	return nil, store.ErrProposalNotFound
}

func (m *MockStore) UpsertProposal(ctx context.Context, p *store.Proposal) error {
	if m.UpsertProposalFunc != nil {
		return m.UpsertProposalFunc(ctx, p)
	}
	return nil
}

func (m *MockStore) UpdateProposalStatus(ctx context.Context, onChainID int64, sessionID string, status store.ProposalStatus) error {
	if m.UpdateProposalStatusFunc != nil {
		return m.UpdateProposalStatusFunc(ctx, onChainID, sessionID, status)
	}
	return nil
}

func (m *MockStore) AddDonationToProposal(ctx context.Context, proposalID int64, amount decimal.Decimal) error {
	if m.AddDonationToProposalFunc != nil {
		return m.AddDonationToProposalFunc(ctx, proposalID, amount)
	}
	return nil
}

func (m *MockStore) GetOrCreateDonor(ctx context.Context, address, sessionID string) (*store.Donor, error) {
	if m.GetOrCreateDonorFunc != nil {
		return m.GetOrCreateDonorFunc(ctx, address, sessionID)
	}
	return &store.Donor{ID: 1, Address: address, SessionID: sessionID}, nil
}

func (m *MockStore) GetOrCreateOpenRound(ctx context.Context, sessionID string) (*store.Round, error) {
	if m.GetOrCreateOpenRoundFunc != nil {
		return m.GetOrCreateOpenRoundFunc(ctx, sessionID)
	}
	return &store.Round{ID: 1, SessionID: sessionID, Status: store.RoundStatusOpen}, nil
}

func (m *MockStore) UpsertRound(ctx context.Context, r *store.Round) error {
	if m.UpsertRoundFunc != nil {
		return m.UpsertRoundFunc(ctx, r)
	}
	return nil
}

func (m *MockStore) InsertDonation(ctx context.Context, d *store.Donation) error {
	if m.InsertDonationFunc != nil {
		return m.InsertDonationFunc(ctx, d)
	}
	return nil
}

func (m *MockStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx, m)
}
