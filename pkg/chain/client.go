package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/grantsync/indexer/pkg/config"
	"github.com/grantsync/indexer/pkg/manifest"
)

// EthereumClient implements Client over a JSON-RPC Ethereum node
type EthereumClient struct {
	client  *ethclient.Client
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	headers map[uint64]BlockInfo
}

// NewClient connects to the configured RPC endpoint
func NewClient(cfg *config.ChainConfig, logger *zap.Logger) (*EthereumClient, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	logger.Info("Connected to chain RPC", zap.String("rpc_url", cfg.RPCURL))

	return &EthereumClient{
		client:  client,
		timeout: cfg.RequestTimeout,
		logger:  logger,
		headers: make(map[uint64]BlockInfo),
	}, nil
}

// Close closes the underlying RPC connection
func (c *EthereumClient) Close() {
	c.client.Close()
}

func (c *EthereumClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// LatestBlockNumber returns the current chain height
func (c *EthereumClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	n, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	return n, nil
}

// CodeAt returns the contract code at the given address and block
func (c *EthereumClient) CodeAt(ctx context.Context, addr common.Address, block uint64) ([]byte, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	code, err := c.client.CodeAt(ctx, addr, new(big.Int).SetUint64(block))
	if err != nil {
		return nil, fmt.Errorf("failed to get code at block %d: %w", block, err)
	}
	return code, nil
}

// BlockInfo returns hash and timestamp of the given block. Results are
// cached per client since block headers of sealed blocks never change on
// the chains this indexer targets.
func (c *EthereumClient) BlockInfo(ctx context.Context, block uint64) (BlockInfo, error) {
	c.mu.Lock()
	if info, ok := c.headers[block]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	if err != nil {
		return BlockInfo{}, fmt.Errorf("failed to get block %d: %w", block, err)
	}

	info := BlockInfo{
		Number:    block,
		Hash:      header.Hash(),
		Timestamp: time.Unix(int64(header.Time), 0).UTC(),
	}

	c.mu.Lock()
	// Bound the cache; a tail tick or backfill chunk touches a limited
	// window of blocks, so dropping everything is fine.
	if len(c.headers) > 4096 {
		c.headers = make(map[uint64]BlockInfo)
	}
	c.headers[block] = info
	c.mu.Unlock()

	return info, nil
}

// FilterEventLogs fetches the named events of a contract over an inclusive
// block range and decodes them against the contract ABI. Logs are returned
// in ascending (block, logIndex) order; downstream components rely on this.
func (c *EthereumClient) FilterEventLogs(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]Log, error) {
	contractABI := contract.ABIDefinition()

	topics := make([]common.Hash, 0, len(events))
	for _, name := range events {
		ev, ok := contractABI.Events[name]
		if !ok {
			return nil, fmt.Errorf("event %s not found in ABI of %s", name, contract.Name)
		}
		topics = append(topics, ev.ID)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{contract.Addr()},
		Topics:    [][]common.Hash{topics},
	}

	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	rawLogs, err := c.client.FilterLogs(callCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs for blocks %d-%d: %w", from, to, err)
	}

	logs := make([]Log, 0, len(rawLogs))
	for _, raw := range rawLogs {
		if raw.Removed {
			continue
		}

		decoded, err := c.decodeLog(contractABI, raw)
		if err != nil {
			return nil, err
		}

		info, err := c.BlockInfo(ctx, raw.BlockNumber)
		if err != nil {
			return nil, err
		}
		decoded.BlockTimestamp = info.Timestamp
		decoded.ContractName = contract.Name

		logs = append(logs, decoded)
	}

	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})

	return logs, nil
}

func (c *EthereumClient) decodeLog(contractABI abi.ABI, raw types.Log) (Log, error) {
	event, err := contractABI.EventByID(raw.Topics[0])
	if err != nil {
		return Log{}, fmt.Errorf("unknown event topic %s: %w", raw.Topics[0].Hex(), err)
	}

	args := make(map[string]any)
	if len(raw.Data) > 0 {
		if err := contractABI.UnpackIntoMap(args, event.Name, raw.Data); err != nil {
			return Log{}, fmt.Errorf("failed to unpack %s data: %w", event.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, raw.Topics[1:]); err != nil {
			return Log{}, fmt.Errorf("failed to unpack %s topics: %w", event.Name, err)
		}
	}

	return Log{
		TxHash:      raw.TxHash,
		LogIndex:    raw.Index,
		BlockNumber: raw.BlockNumber,
		Contract:    raw.Address,
		EventName:   event.Name,
		Args:        args,
	}, nil
}
