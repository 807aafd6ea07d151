package governance

import (
	"sort"
	"strings"
)

// stats derives the cumulative info of item. Callers hold a.mu.
func (a *Aggregator) stats(item *ProposalInfo) ProposalStats {
	var s ProposalStats

	for _, v := range item.Votes {
		power := item.Scores.All.Total(v.Voter)

		switch v.Choice {
		case ChoiceFor:
			s.VotesCountFor += power
		case ChoiceAgainst:
			s.VotesCountAgainst += power
		}
	}

	total := s.VotesCountFor + s.VotesCountAgainst

	if item.CommunityVotingPower > 0 {
		s.VotingActivity = 100 * total / item.CommunityVotingPower
	}

	s.IsQuorumReached = total > item.CommunityVotingPower*a.cfg.MinimumVotingThresholdMultiplier
	s.IsSucceeded = s.IsQuorumReached && s.VotesCountFor > s.VotesCountAgainst

	if a.hasAccount() {
		s.IsVoted = item.Scores.All.HasPower(a.accountKey())
	}

	selfPower := item.Scores.Self.Total(a.accountKey())
	s.HasEnoughVotingPowerToVote = s.IsVoted || selfPower > a.powerNeededToBecomeProposer

	return s
}

// CumulativeInfo derives the stats of every cached proposal
func (a *Aggregator) CumulativeInfo() map[string]ProposalStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	res := make(map[string]ProposalStats, len(a.items))
	for id, item := range a.items {
		res[id] = a.stats(item)
	}
	return res
}

// ProposalStats derives the stats of one cached proposal
func (a *Aggregator) ProposalStats(id string) (ProposalStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	item, ok := a.items[id]
	if !ok {
		return ProposalStats{}, false
	}
	return a.stats(item), true
}

// Items returns the cached proposals in no particular order
func (a *Aggregator) Items() []*ProposalInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	items := make([]*ProposalInfo, 0, len(a.items))
	for _, item := range a.items {
		items = append(items, item)
	}
	return items
}

func (a *Aggregator) ProposalsOrderedByEndingDesc() []*ProposalInfo {
	items := a.Items()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Proposal.End == items[j].Proposal.End {
			return items[i].Proposal.ID > items[j].Proposal.ID
		}
		return items[i].Proposal.End > items[j].Proposal.End
	})

	return items
}

// LastProposal is the cached proposal ending last, nil when there is none
func (a *Aggregator) LastProposal() *ProposalInfo {
	items := a.ProposalsOrderedByEndingDesc()
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

func isOpen(p Proposal) bool {
	return p.State == ProposalActive
}

func isClosed(p Proposal) bool {
	return p.State == ProposalClosed
}

func (a *Aggregator) TimesVoted() int {
	n := 0
	for _, s := range a.CumulativeInfo() {
		if s.IsVoted {
			n++
		}
	}
	return n
}

func (a *Aggregator) ProposalsCreated() int {
	if !a.hasAccount() {
		return 0
	}

	n := 0
	for _, item := range a.Items() {
		if strings.EqualFold(item.Proposal.Author, a.accountKey()) {
			n++
		}
	}
	return n
}

func (a *Aggregator) TotalNumberOfProposals() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.items)
}

func (a *Aggregator) OpenProposals() int {
	n := 0
	for _, item := range a.Items() {
		if isOpen(item.Proposal) {
			n++
		}
	}
	return n
}

func (a *Aggregator) countClosed(succeeded bool) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, item := range a.items {
		if !isClosed(item.Proposal) {
			continue
		}
		if a.stats(item).IsSucceeded == succeeded {
			n++
		}
	}
	return n
}

func (a *Aggregator) SucceededProposals() int {
	return a.countClosed(true)
}

func (a *Aggregator) DefeatedProposals() int {
	return a.countClosed(false)
}

// ProposalState is accepted or defeated for closed proposals and tells
// whether the quorum is reached for pending and active ones
func (a *Aggregator) ProposalState(id string) (ProposalState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	item, ok := a.items[id]
	if !ok {
		return "", false
	}

	s := a.stats(item)

	if isClosed(item.Proposal) {
		if s.IsSucceeded {
			return ProposalStateAccepted, true
		}
		return ProposalStateDefeated, true
	}

	if s.IsQuorumReached {
		return ProposalStateQuorumReached, true
	}
	return ProposalStateQuorumNotReached, true
}

// MinimumVotingThreshold is the current quorum in voting power
func (a *Aggregator) MinimumVotingThreshold() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.communityVotingPower * a.cfg.MinimumVotingThresholdMultiplier
}

func (a *Aggregator) IsAlreadyVoted(id string) bool {
	s, ok := a.ProposalStats(id)
	return ok && s.IsVoted
}

func (a *Aggregator) HasEnoughVotingPowerToVote(id string) bool {
	s, ok := a.ProposalStats(id)
	return ok && s.HasEnoughVotingPowerToVote
}

func (a *Aggregator) HasEnoughVotingPowerToBecomeAProposer() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.votingPowerSelf >= a.powerNeededToBecomeProposer
}

// Stats is the overview of the governance space for the account
type Stats struct {
	TotalNumberOfProposals                int     `json:"totalNumberOfProposals"`
	OpenProposals                         int     `json:"openProposals"`
	SucceededProposals                    int     `json:"succeededProposals"`
	DefeatedProposals                     int     `json:"defeatedProposals"`
	TimesVoted                            int     `json:"timesVoted"`
	ProposalsCreated                      int     `json:"proposalsCreated"`
	CommunityVotingPower                  float64 `json:"communityVotingPower"`
	VotingPowerSelf                       float64 `json:"votingPowerSelf"`
	PowerNeededToBecomeProposer           float64 `json:"powerNeededToBecomeProposer"`
	MinimumVotingThreshold                float64 `json:"minimumVotingThreshold"`
	HasEnoughVotingPowerToBecomeAProposer bool    `json:"hasEnoughVotingPowerToBecomeAProposer"`
}

func (a *Aggregator) Stats() Stats {
	return Stats{
		TotalNumberOfProposals:                a.TotalNumberOfProposals(),
		OpenProposals:                         a.OpenProposals(),
		SucceededProposals:                    a.SucceededProposals(),
		DefeatedProposals:                     a.DefeatedProposals(),
		TimesVoted:                            a.TimesVoted(),
		ProposalsCreated:                      a.ProposalsCreated(),
		CommunityVotingPower:                  a.CommunityVotingPower(),
		VotingPowerSelf:                       a.VotingPowerSelf(),
		PowerNeededToBecomeProposer:           a.PowerNeededToBecomeProposer(),
		MinimumVotingThreshold:                a.MinimumVotingThreshold(),
		HasEnoughVotingPowerToBecomeAProposer: a.HasEnoughVotingPowerToBecomeAProposer(),
	}
}
