// Package processor turns decoded contract logs into session-scoped store
// writes. It is the correctness core of the indexer: one log entry maps to
// at most one raw event row plus its projection mutations, written as a
// single transaction.
package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/grantsync/indexer/internal/metrics"
	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/store"
)

// Outcome is the terminal state of processing one log entry
type Outcome int

const (
	// OutcomeApplied means the raw event and its projections were persisted
	OutcomeApplied Outcome = iota
	// OutcomeDuplicate means the event was already stored and nothing changed
	OutcomeDuplicate
	// OutcomeInconsistent means the raw event was recorded but its
	// projection was skipped because it references unknown state
	OutcomeInconsistent
	// OutcomeSkipped means the log entry could not be decoded and was
	// dropped without any write
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInconsistent:
		return "inconsistent"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Processor applies contract logs for one resolved chain session
type Processor struct {
	store   store.Store
	session *store.ChainSession
	logger  *zap.Logger
}

// New creates a processor bound to a resolved session
func New(st store.Store, session *store.ChainSession, logger *zap.Logger) *Processor {
	return &Processor{
		store:   st,
		session: session,
		logger:  logger,
	}
}

// Session returns the session this processor is bound to
func (p *Processor) Session() *store.ChainSession {
	return p.session
}

// ProcessLog processes a single log entry. Input order is trusted: the
// caller is responsible for delivering logs in ascending (block, logIndex)
// order, and ProcessLog never re-sorts or defers work.
//
// A nil error with OutcomeDuplicate, OutcomeInconsistent or OutcomeSkipped
// means the entry was handled and the caller should continue; a non-nil
// error means persistence failed and the caller decides whether to retry
// the range.
func (p *Processor) ProcessLog(ctx context.Context, log chain.Log) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	kind := KindOf(log.EventName)
	decoded, err := p.decode(kind, log)
	if err != nil {
		p.logger.Warn("Skipping undecodable event",
			zap.String("event", log.EventName),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Uint("log_index", log.LogIndex),
			zap.Error(err))
		metrics.EventsError.WithLabelValues("decode").Inc()
		return OutcomeSkipped, nil
	}

	raw := &store.ContractEvent{
		TxHash:         log.TxHash.Hex(),
		LogIndex:       int64(log.LogIndex),
		SessionID:      p.session.ID,
		EventType:      log.ContractName + "." + log.EventName,
		BlockNumber:    int64(log.BlockNumber),
		BlockTimestamp: log.BlockTimestamp,
		Args:           log.Args,
		ObservedAt:     time.Now().UTC(),
	}

	outcome := OutcomeApplied
	err = p.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		inserted, err := tx.InsertEvent(ctx, raw)
		if err != nil {
			return err
		}
		if !inserted {
			outcome = OutcomeDuplicate
			return nil
		}

		oc, err := p.apply(ctx, tx, kind, decoded, log)
		if err != nil {
			return err
		}
		outcome = oc
		return nil
	})
	if err != nil {
		metrics.EventsError.WithLabelValues("persist").Inc()
		p.logger.Error("Failed to persist event",
			zap.String("event", log.EventName),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Uint("log_index", log.LogIndex),
			zap.Error(err))
		return outcome, err
	}

	switch outcome {
	case OutcomeApplied:
		metrics.EventsProcessed.WithLabelValues(raw.EventType).Inc()
		p.logger.Debug("Event applied",
			zap.String("event", raw.EventType),
			zap.String("tx_hash", raw.TxHash),
			zap.Int64("block", raw.BlockNumber))
	case OutcomeDuplicate:
		metrics.EventsDuplicate.Inc()
		p.logger.Debug("Duplicate event skipped",
			zap.String("event", raw.EventType),
			zap.String("tx_hash", raw.TxHash),
			zap.Int64("log_index", raw.LogIndex))
	case OutcomeInconsistent:
		metrics.ConsistencyWarnings.Inc()
		p.logger.Warn("Event references unknown state, projection skipped",
			zap.String("event", raw.EventType),
			zap.String("tx_hash", raw.TxHash),
			zap.Int64("block", raw.BlockNumber))
	}

	return outcome, nil
}

// decode parses the typed payload for known kinds. Unknown kinds decode to
// nil: they are recorded in the audit table but carry no projection.
func (p *Processor) decode(kind Kind, log chain.Log) (any, error) {
	switch kind {
	case KindGrantRegistered:
		return decodeGrantRegistered(log.Args)
	case KindDonationReceived:
		return decodeDonationReceived(log.Args)
	case KindGrantStatusChanged:
		return decodeGrantStatusChanged(log.Args)
	case KindRoundCreated:
		return decodeRoundCreated(log.Args)
	case KindUnknown:
		return nil, nil
	default:
		return nil, nil
	}
}
