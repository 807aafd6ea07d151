package governance

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/viamover/moverd/pkg/mover"
)

// SnapshotLatest asks for scores at the latest block
const SnapshotLatest = "latest"

// Source is the voting and scoring service
type Source interface {
	GetProposal(ctx context.Context, id string) (*ProposalWithVotes, error)
	GetProposalIDs(ctx context.Context, space string) ([]string, error)
	GetLastProposalID(ctx context.Context, space string) (string, error)
	GetScores(ctx context.Context, space string, strategies []Strategy, network string, addresses []string, snapshot string) (Scores, error)
	GetSpace(ctx context.Context, space string) (*Space, error)

	CreateProposal(ctx context.Context, w mover.Wallet, address common.Address, space string, params CreateProposalParams) (*Receipt, error)
	Vote(ctx context.Context, w mover.Wallet, address common.Address, space string, params VoteParams) (*Receipt, error)
}

// PowerSource serves voting power computed by the Mover backend
type PowerSource interface {
	GetVotingPower(ctx context.Context, address common.Address) (float64, error)
	// GetCommunityVotingPower returns the power at snapshot, or the current power for an empty snapshot
	GetCommunityVotingPower(ctx context.Context, snapshot string) (float64, error)
}
