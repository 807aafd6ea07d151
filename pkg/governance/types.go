package governance

import "strings"

type Strategy struct {
	Name    string         `json:"name"`
	Network string         `json:"network,omitempty"`
	Params  map[string]any `json:"params"`
}

type SpaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot proposal states
const (
	ProposalPending = "pending"
	ProposalActive  = "active"
	ProposalClosed  = "closed"
)

type Proposal struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Choices    []string   `json:"choices"`
	Start      int64      `json:"start"`
	End        int64      `json:"end"`
	Snapshot   string     `json:"snapshot"`
	State      string     `json:"state"`
	Author     string     `json:"author"`
	Created    int64      `json:"created"`
	Network    string     `json:"network"`
	Strategies []Strategy `json:"strategies"`
	Space      SpaceRef   `json:"space"`
}

type Vote struct {
	ID      string `json:"id"`
	Voter   string `json:"voter"`
	Created int64  `json:"created"`
	Choice  Choice `json:"choice"`
}

type ProposalWithVotes struct {
	Proposal *Proposal `json:"proposal"`
	Votes    []Vote    `json:"votes"`
}

// Scores holds one voter -> power map per strategy. Keys are lower case addresses.
type Scores []map[string]float64

// EmptyScores returns n empty strategy maps
func EmptyScores(n int) Scores {
	s := make(Scores, n)
	for i := range s {
		s[i] = map[string]float64{}
	}
	return s
}

// Total sums the power of address over all strategies
func (s Scores) Total(address string) float64 {
	address = strings.ToLower(address)

	var total float64
	for _, m := range s {
		total += m[address]
	}
	return total
}

// HasPower reports whether any strategy gives address a non-zero score
func (s Scores) HasPower(address string) bool {
	address = strings.ToLower(address)

	for _, m := range s {
		if m[address] != 0 {
			return true
		}
	}
	return false
}

type ProposalScores struct {
	All  Scores `json:"all"`
	Self Scores `json:"self"`
}

type ProposalInfo struct {
	Proposal             Proposal       `json:"proposal"`
	Votes                []Vote         `json:"votes"`
	Scores               ProposalScores `json:"scores"`
	CommunityVotingPower float64        `json:"communityVotingPower"`
}

type SpaceFilters struct {
	MinScore    float64 `json:"minScore"`
	OnlyMembers bool    `json:"onlyMembers"`
}

type Space struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Network    string       `json:"network"`
	Symbol     string       `json:"symbol"`
	Strategies []Strategy   `json:"strategies"`
	Filters    SpaceFilters `json:"filters"`
	Members    []string     `json:"members"`
}

// Choice is the 1-based index of a proposal choice
type Choice int

const (
	ChoiceFor     Choice = 1
	ChoiceAgainst Choice = 2
)

func (c Choice) Valid() bool {
	return c == ChoiceFor || c == ChoiceAgainst
}

// DefaultChoices are the choices of every proposal created here, in Choice order
var DefaultChoices = []string{"for", "against"}

type CreateProposalParams struct {
	Name     string         `json:"name"`
	Body     string         `json:"body"`
	Choices  []string       `json:"choices"`
	Start    int64          `json:"start"`
	End      int64          `json:"end"`
	Snapshot uint64         `json:"snapshot"`
	Metadata map[string]any `json:"metadata"`
}

type VoteParams struct {
	Proposal string         `json:"proposal"`
	Choice   Choice         `json:"choice"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Receipt is returned by the hub once a signed message was accepted
type Receipt struct {
	ID      string `json:"id"`
	IPFS    string `json:"ipfs,omitempty"`
	Relayer string `json:"relayer,omitempty"`
}

// ProposalStats are derived from a cached ProposalInfo on every read
type ProposalStats struct {
	VotesCountFor              float64 `json:"votesCountFor"`
	VotesCountAgainst          float64 `json:"votesCountAgainst"`
	VotingActivity             float64 `json:"votingActivity"`
	IsQuorumReached            bool    `json:"isQuorumReached"`
	IsSucceeded                bool    `json:"isSucceeded"`
	IsVoted                    bool    `json:"isVoted"`
	HasEnoughVotingPowerToVote bool    `json:"hasEnoughVotingPowerToVote"`
}

type ProposalState string

const (
	ProposalStateAccepted         ProposalState = "accepted"
	ProposalStateDefeated         ProposalState = "defeated"
	ProposalStateQuorumReached    ProposalState = "quorumReached"
	ProposalStateQuorumNotReached ProposalState = "quorumNotReached"
)
