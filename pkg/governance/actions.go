package governance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CreateProposal creates a for/against proposal open from now for the
// configured number of days, pinned to the current block
func (a *Aggregator) CreateProposal(ctx context.Context, title, description string, metadata map[string]any) (*Receipt, error) {
	receipt, err := a.createProposal(ctx, title, description, metadata)
	if err != nil {
		a.report(err)
		return nil, err
	}

	log.Info().Str("id", receipt.ID).Msg("proposal created")

	return receipt, nil
}

func (a *Aggregator) createProposal(ctx context.Context, title, description string, metadata map[string]any) (*Receipt, error) {
	if a.wallet == nil {
		return nil, ErrNoWallet
	}

	if !a.hasAccount() {
		return nil, ErrNoAddress
	}

	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return nil, ErrEmptyProposal
	}

	if !a.HasEnoughVotingPowerToBecomeAProposer() {
		return nil, ErrNotEnoughPowerToPropose
	}

	now := a.clock.Now()

	block, err := a.wallet.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	params := CreateProposalParams{
		Name:     title,
		Body:     description,
		Choices:  DefaultChoices,
		Start:    now.Unix(),
		End:      now.Add(time.Duration(a.cfg.ProposalDurationDays) * 24 * time.Hour).Unix(),
		Snapshot: block,
		Metadata: metadata,
	}

	return a.source.CreateProposal(ctx, a.wallet, a.account, a.cfg.SpaceID, params)
}

// Vote casts the vote of the account. The proposal must be cached.
func (a *Aggregator) Vote(ctx context.Context, params VoteParams) (*Receipt, error) {
	receipt, err := a.vote(ctx, params)
	if err != nil {
		a.report(err)
		return nil, err
	}

	log.Info().Str("proposal", params.Proposal).Int("choice", int(params.Choice)).Msg("vote cast")

	return receipt, nil
}

func (a *Aggregator) vote(ctx context.Context, params VoteParams) (*Receipt, error) {
	if a.wallet == nil {
		return nil, ErrNoWallet
	}

	if !a.hasAccount() {
		return nil, ErrNoAddress
	}

	if !params.Choice.Valid() {
		return nil, ErrInvalidChoice
	}

	if a.IsAlreadyVoted(params.Proposal) {
		return nil, ErrAlreadyVoted
	}

	if !a.HasEnoughVotingPowerToVote(params.Proposal) {
		return nil, ErrNotEnoughPowerToVote
	}

	return a.source.Vote(ctx, a.wallet, a.account, a.cfg.SpaceID, params)
}
