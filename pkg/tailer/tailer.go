// Package tailer runs the continuous polling loop that keeps the store in
// sync with the chain head.
package tailer

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grantsync/indexer/internal/metrics"
	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/manifest"
	"github.com/grantsync/indexer/pkg/processor"
	"github.com/grantsync/indexer/pkg/store"
)

// LogProcessor applies one decoded log entry
type LogProcessor interface {
	ProcessLog(ctx context.Context, log chain.Log) (processor.Outcome, error)
}

// Tailer is a single-threaded poller bound to one resolved session. It
// advances the cursor only after a whole tick's batch is processed, so a
// crash mid-batch makes the next startup reprocess the range; the
// processor's idempotency makes that safe.
type Tailer struct {
	client    chain.Client
	store     store.Store
	processor LogProcessor
	contract  *manifest.Contract
	session   *store.ChainSession
	interval  time.Duration
	logger    *zap.Logger

	cursor     uint64
	haveCursor bool
	ready      atomic.Bool
}

// New creates a tailer for one session
func New(
	client chain.Client,
	st store.Store,
	proc LogProcessor,
	contract *manifest.Contract,
	sess *store.ChainSession,
	interval time.Duration,
	logger *zap.Logger,
) *Tailer {
	return &Tailer{
		client:    client,
		store:     st,
		processor: proc,
		contract:  contract,
		session:   sess,
		interval:  interval,
		logger:    logger,
	}
}

// Ready reports whether at least one tick completed since startup
func (t *Tailer) Ready() bool {
	return t.ready.Load()
}

// Run polls until the context is cancelled. A failed tick is logged and the
// loop continues after the normal sleep interval; the cursor is never
// advanced past an unprocessed range.
func (t *Tailer) Run(ctx context.Context) error {
	if err := t.loadCursor(ctx); err != nil {
		return err
	}

	t.logger.Info("Starting tail loop",
		zap.String("session_id", t.session.ID),
		zap.Duration("poll_interval", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Error("Tail tick failed", zap.Error(err))
			metrics.EventsError.WithLabelValues("tick").Inc()
		}

		select {
		case <-ctx.Done():
			t.logger.Info("Tail loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tailer) loadCursor(ctx context.Context) error {
	block, ok, err := t.store.GetCursor(ctx, t.session.ID)
	if err != nil {
		return err
	}
	if ok {
		t.cursor = block
		t.haveCursor = true
		t.logger.Info("Resuming from stored cursor", zap.Uint64("block", block))
	} else {
		t.logger.Info("No stored cursor, starting from deployment block",
			zap.Int64("block", t.session.DeploymentBlock))
	}
	return nil
}

// tick processes everything between the cursor and the current head
func (t *Tailer) tick(ctx context.Context) error {
	head, err := t.client.LatestBlockNumber(ctx)
	if err != nil {
		return err
	}

	from := uint64(t.session.DeploymentBlock)
	if t.haveCursor {
		from = t.cursor + 1
	}
	if head < from {
		t.ready.Store(true)
		return nil
	}

	logs, err := t.client.FilterEventLogs(ctx, t.contract, processor.WatchedEvents, from, head)
	if err != nil {
		return err
	}

	for _, log := range logs {
		if _, err := t.processor.ProcessLog(ctx, log); err != nil {
			// Leave the cursor behind so the next tick retries the range.
			return err
		}
	}

	if err := t.store.SetCursor(ctx, t.session.ID, head); err != nil {
		return err
	}
	t.cursor = head
	t.haveCursor = true
	t.ready.Store(true)

	metrics.LastProcessedBlock.Set(float64(head))
	if len(logs) > 0 {
		t.logger.Info("Processed tail batch",
			zap.Uint64("from", from),
			zap.Uint64("to", head),
			zap.Int("events", len(logs)))
	}

	return nil
}
