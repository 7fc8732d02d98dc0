package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/grantsync/indexer/pkg/manifest"
)

// BlockInfo carries the block fields the indexer needs
type BlockInfo struct {
	Number    uint64
	Hash      common.Hash
	Timestamp time.Time
}

// Log is one decoded contract event log
type Log struct {
	TxHash         common.Hash
	LogIndex       uint
	BlockNumber    uint64
	BlockTimestamp time.Time
	Contract       common.Address
	ContractName   string
	EventName      string
	Args           map[string]any
}

// Client is the narrow RPC surface consumed by the detector, the tailing
// loop and the backfill worker. All calls are synchronous; network errors
// are retryable by the caller.
type Client interface {
	// LatestBlockNumber returns the current chain height
	LatestBlockNumber(ctx context.Context) (uint64, error)
	// CodeAt returns the contract code at the given address and block
	CodeAt(ctx context.Context, addr common.Address, block uint64) ([]byte, error)
	// BlockInfo returns hash and timestamp of the given block
	BlockInfo(ctx context.Context, block uint64) (BlockInfo, error)
	// FilterEventLogs fetches and decodes the named events of a contract
	// over an inclusive block range, in ascending (block, logIndex) order.
	FilterEventLogs(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]Log, error)
}
