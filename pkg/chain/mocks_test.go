package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/grantsync/indexer/pkg/manifest"
)

// MockClient is a mock implementation of Client
type MockClient struct {
	LatestBlockNumberFunc func(ctx context.Context) (uint64, error)
	CodeAtFunc            func(ctx context.Context, addr common.Address, block uint64) ([]byte, error)
	BlockInfoFunc         func(ctx context.Context, block uint64) (BlockInfo, error)
	FilterEventLogsFunc   func(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]Log, error)
}

func (m *MockClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if m.LatestBlockNumberFunc != nil {
		return m.LatestBlockNumberFunc(ctx)
	}
	return 0, nil
}

func (m *MockClient) CodeAt(ctx context.Context, addr common.Address, block uint64) ([]byte, error) {
	if m.CodeAtFunc != nil {
		return m.CodeAtFunc(ctx, addr, block)
	}
	return nil, nil
}

func (m *MockClient) BlockInfo(ctx context.Context, block uint64) (BlockInfo, error) {
	if m.BlockInfoFunc != nil {
		return m.BlockInfoFunc(ctx, block)
	}
	return BlockInfo{Number: block}, nil
}

func (m *MockClient) FilterEventLogs(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]Log, error) {
	if m.FilterEventLogsFunc != nil {
		return m.FilterEventLogsFunc(ctx, contract, events, from, to)
	}
	return nil, nil
}
