package backfill

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/manifest"
	"github.com/grantsync/indexer/pkg/processor"
)

// MockClient is a mock implementation of chain.Client
type MockClient struct {
	LatestBlockNumberFunc func(ctx context.Context) (uint64, error)
	CodeAtFunc            func(ctx context.Context, addr common.Address, block uint64) ([]byte, error)
	BlockInfoFunc         func(ctx context.Context, block uint64) (chain.BlockInfo, error)
	FilterEventLogsFunc   func(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]chain.Log, error)
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

func (m *MockClient) BlockInfo(ctx context.Context, block uint64) (chain.BlockInfo, error) {
	if m.BlockInfoFunc != nil {
		return m.BlockInfoFunc(ctx, block)
	}
	return chain.BlockInfo{Number: block}, nil
}

func (m *MockClient) FilterEventLogs(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]chain.Log, error) {
	if m.FilterEventLogsFunc != nil {
		return m.FilterEventLogsFunc(ctx, contract, events, from, to)
	}
	return nil, nil
}

// MockProcessor is a mock implementation of LogProcessor
type MockProcessor struct {
	ProcessLogFunc func(ctx context.Context, log chain.Log) (processor.Outcome, error)
}

func (m *MockProcessor) ProcessLog(ctx context.Context, log chain.Log) (processor.Outcome, error) {
	if m.ProcessLogFunc != nil {
		return m.ProcessLogFunc(ctx, log)
	}
	return processor.OutcomeApplied, nil
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		name string
		from uint64
		to   uint64
		size uint64
		want []BlockRange
	}{
		{
			name: "single chunk",
			from: 0, to: 99, size: 100,
			want: []BlockRange{{0, 99}},
		},
		{
			name: "exact multiple",
			from: 0, to: 199, size: 100,
			want: []BlockRange{{0, 99}, {100, 199}},
		},
		{
			name: "ragged tail",
			from: 10, to: 25, size: 10,
			want: []BlockRange{{10, 19}, {20, 25}},
		},
		{
			name: "single block",
			from: 7, to: 7, size: 100,
			want: []BlockRange{{7, 7}},
		},
		{
			name: "inverted range",
			from: 10, to: 5, size: 100,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRange(tt.from, tt.to, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitRange(%d, %d, %d) = %v, want %v", tt.from, tt.to, tt.size, got, tt.want)
			}
		})
	}
}

func TestRun_CountsOutcomes(t *testing.T) {
	client := &MockClient{
		FilterEventLogsFunc: func(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]chain.Log, error) {
			return []chain.Log{
				{BlockNumber: from, EventName: "GrantRegistered"},
				{BlockNumber: from + 1, EventName: "DonationReceived"},
			}, nil
		},
	}

	outcomes := []processor.Outcome{
		processor.OutcomeApplied,
		processor.OutcomeDuplicate,
		processor.OutcomeInconsistent,
		processor.OutcomeSkipped,
	}
	var call int
	proc := &MockProcessor{
		ProcessLogFunc: func(ctx context.Context, log chain.Log) (processor.Outcome, error) {
			o := outcomes[call%len(outcomes)]
			call++
			return o, nil
		},
	}

	worker := NewWorker(client, proc, nil, 10, zap.NewNop())
	report, err := worker.Run(context.Background(), 0, 19)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 2 chunks, 2 logs each, outcomes cycling through all four values
	if report.Failed() {
		t.Errorf("Expected no failed chunks, got %d", len(report.FailedChunks))
	}
	if report.Applied != 1 || report.Duplicates != 1 || report.Inconsistent != 1 || report.Skipped != 1 {
		t.Errorf("Unexpected counts: %+v", report)
	}
}

func TestRun_ContinuesPastFailedChunk(t *testing.T) {
	fetchErr := errors.New("rpc timeout")
	var fetched []uint64
	client := &MockClient{
		FilterEventLogsFunc: func(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]chain.Log, error) {
			fetched = append(fetched, from)
			if from == 10 {
				return nil, fetchErr
			}
			return []chain.Log{{BlockNumber: from}}, nil
		},
	}

	worker := NewWorker(client, &MockProcessor{}, nil, 10, zap.NewNop())
	report, err := worker.Run(context.Background(), 0, 29)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(fetched) != 3 {
		t.Errorf("Expected 3 chunk fetches, got %d", len(fetched))
	}
	if !report.Failed() || len(report.FailedChunks) != 1 {
		t.Fatalf("Expected exactly 1 failed chunk, got %+v", report.FailedChunks)
	}
	failed := report.FailedChunks[0]
	if failed.Range.From != 10 || failed.Range.To != 19 {
		t.Errorf("Expected failed chunk [10, 19], got [%d, %d]", failed.Range.From, failed.Range.To)
	}
	if !errors.Is(failed.Err, fetchErr) {
		t.Errorf("Expected wrapped fetch error, got %v", failed.Err)
	}
	if report.Applied != 2 {
		t.Errorf("Expected 2 applied from surviving chunks, got %d", report.Applied)
	}
}

func TestRun_ProcessorFailureFailsChunkOnly(t *testing.T) {
	client := &MockClient{
		FilterEventLogsFunc: func(ctx context.Context, contract *manifest.Contract, events []string, from, to uint64) ([]chain.Log, error) {
			return []chain.Log{{BlockNumber: from}}, nil
		},
	}

	procErr := errors.New("database unavailable")
	proc := &MockProcessor{
		ProcessLogFunc: func(ctx context.Context, log chain.Log) (processor.Outcome, error) {
			if log.BlockNumber == 0 {
				return processor.OutcomeApplied, procErr
			}
			return processor.OutcomeApplied, nil
		},
	}

	worker := NewWorker(client, proc, nil, 10, zap.NewNop())
	report, err := worker.Run(context.Background(), 0, 19)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.FailedChunks) != 1 {
		t.Fatalf("Expected 1 failed chunk, got %d", len(report.FailedChunks))
	}
	if report.Applied != 1 {
		t.Errorf("Expected the second chunk to be applied, got %d", report.Applied)
	}
}

func TestRun_InvalidRange(t *testing.T) {
	worker := NewWorker(&MockClient{}, &MockProcessor{}, nil, 10, zap.NewNop())
	if _, err := worker.Run(context.Background(), 10, 5); err == nil {
		t.Fatal("Expected an error for an inverted range")
	}
}
