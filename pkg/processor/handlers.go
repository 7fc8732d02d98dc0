package processor

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/store"
)

// apply dispatches a decoded event to its projection handler. The switch is
// exhaustive over Kind; adding a new event type without a handler is a
// compile-visible change here, not a silently ignored string.
func (p *Processor) apply(ctx context.Context, tx store.Store, kind Kind, decoded any, log chain.Log) (Outcome, error) {
	switch kind {
	case KindGrantRegistered:
		return p.applyGrantRegistered(ctx, tx, decoded.(*GrantRegistered), log)
	case KindDonationReceived:
		return p.applyDonationReceived(ctx, tx, decoded.(*DonationReceived), log)
	case KindGrantStatusChanged:
		return p.applyGrantStatusChanged(ctx, tx, decoded.(*GrantStatusChanged))
	case KindRoundCreated:
		return p.applyRoundCreated(ctx, tx, decoded.(*RoundCreated))
	case KindUnknown:
		// Audit-only: the raw row is kept, no projection exists.
		return OutcomeApplied, nil
	default:
		return OutcomeApplied, nil
	}
}

func (p *Processor) applyGrantRegistered(ctx context.Context, tx store.Store, ev *GrantRegistered, log chain.Log) (Outcome, error) {
	donor, err := tx.GetOrCreateDonor(ctx, ev.Proposer.Hex(), p.session.ID)
	if err != nil {
		return OutcomeApplied, err
	}

	round, err := tx.GetOrCreateOpenRound(ctx, p.session.ID)
	if err != nil {
		return OutcomeApplied, err
	}

	now := time.Now().UTC()
	proposal := &store.Proposal{
		OnChainID:      ev.GrantID,
		SessionID:      p.session.ID,
		ProposerID:     donor.ID,
		RoundID:        round.ID,
		MetadataURI:    ev.MetadataURI,
		Status:         store.ProposalStatusActive,
		TotalDonations: decimal.Zero,
		CreatedAt:      log.BlockTimestamp,
		UpdatedAt:      now,
	}
	if err := tx.UpsertProposal(ctx, proposal); err != nil {
		return OutcomeApplied, err
	}

	return OutcomeApplied, nil
}

func (p *Processor) applyDonationReceived(ctx context.Context, tx store.Store, ev *DonationReceived, log chain.Log) (Outcome, error) {
	proposal, err := tx.GetProposal(ctx, ev.GrantID, p.session.ID)
	if errors.Is(err, store.ErrProposalNotFound) {
		// On-chain data referencing a grant this session never saw.
		// Keep the raw event, skip the projection, keep the batch going.
		return OutcomeInconsistent, nil
	}
	if err != nil {
		return OutcomeApplied, err
	}

	donor, err := tx.GetOrCreateDonor(ctx, ev.Donor.Hex(), p.session.ID)
	if err != nil {
		return OutcomeApplied, err
	}

	donation := &store.Donation{
		ProposalID:  proposal.ID,
		DonorID:     donor.ID,
		SessionID:   p.session.ID,
		Amount:      ev.Amount,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    int64(log.LogIndex),
		BlockNumber: int64(log.BlockNumber),
		CreatedAt:   log.BlockTimestamp,
	}
	if err := tx.InsertDonation(ctx, donation); err != nil {
		return OutcomeApplied, err
	}

	if err := tx.AddDonationToProposal(ctx, proposal.ID, ev.Amount); err != nil {
		return OutcomeApplied, err
	}

	return OutcomeApplied, nil
}

func (p *Processor) applyGrantStatusChanged(ctx context.Context, tx store.Store, ev *GrantStatusChanged) (Outcome, error) {
	_, err := tx.GetProposal(ctx, ev.GrantID, p.session.ID)
	if errors.Is(err, store.ErrProposalNotFound) {
		return OutcomeInconsistent, nil
	}
	if err != nil {
		return OutcomeApplied, err
	}

	if err := tx.UpdateProposalStatus(ctx, ev.GrantID, p.session.ID, ev.Status); err != nil {
		return OutcomeApplied, err
	}
	return OutcomeApplied, nil
}

func (p *Processor) applyRoundCreated(ctx context.Context, tx store.Store, ev *RoundCreated) (Outcome, error) {
	onChainID := ev.RoundID
	startsAt := ev.StartsAt
	endsAt := ev.EndsAt
	round := &store.Round{
		OnChainID: &onChainID,
		SessionID: p.session.ID,
		Name:      ev.Name,
		Status:    store.RoundStatusOpen,
		StartsAt:  &startsAt,
		EndsAt:    &endsAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.UpsertRound(ctx, round); err != nil {
		return OutcomeApplied, err
	}
	return OutcomeApplied, nil
}
