package governance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/pkg/governance"
	"github.com/viamover/moverd/pkg/metrics"
)

type Service struct {
	agg *governance.Aggregator
}

func NewService(agg *governance.Aggregator) *Service {
	return &Service{
		agg: agg,
	}
}

// ProposalView is a cached proposal together with its derived stats
type ProposalView struct {
	*governance.ProposalInfo
	Stats governance.ProposalStats `json:"stats"`
	State governance.ProposalState `json:"state"`
}

func (s *Service) view(item *governance.ProposalInfo) ProposalView {
	v := ProposalView{ProposalInfo: item}
	v.Stats, _ = s.agg.ProposalStats(item.Proposal.ID)
	v.State, _ = s.agg.ProposalState(item.Proposal.ID)
	return v
}

func parseRefetch(r *http.Request) bool {
	refetch, _ := strconv.ParseBool(r.URL.Query().Get("refetch"))
	return refetch
}

func writeError(w http.ResponseWriter, err error) {
	var gerr *governance.Error
	switch {
	case errors.As(err, &gerr):
		com.ErrorBody(w, http.StatusBadRequest, gerr.Code, err)
	case errors.Is(err, governance.ErrProposalNotFound):
		com.ErrorBody(w, http.StatusNotFound, "NOT_FOUND", err)
	default:
		com.ErrorBody(w, http.StatusBadGateway, "UPSTREAM", err)
	}
}

// GetProposals returns the proposals of the space, most recent first
func (s *Service) GetProposals(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, err := s.agg.LoadGovernanceInfo(r.Context(), parseRefetch(r))
	metrics.RecordGovernanceLoad("all", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	items := s.agg.ProposalsOrderedByEndingDesc()

	views := make([]ProposalView, 0, len(items))
	for _, item := range items {
		views = append(views, s.view(item))
	}

	// ?state=accepted keeps the proposals in that state
	if state := governance.ProposalState(r.URL.Query().Get("state")); state != "" {
		views = com.Filter(views, func(v ProposalView) bool {
			return v.State == state
		})
	}

	err = com.BodyMultiple(w, views, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetLastProposal(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	item, err := s.agg.LoadMinimalGovernanceInfo(r.Context(), parseRefetch(r))
	metrics.RecordGovernanceLoad("minimal", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	if item == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	err = com.Body(w, s.view(item), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetProposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start := time.Now()
	item, err := s.agg.LoadProposalInfo(r.Context(), id, parseRefetch(r))
	metrics.RecordGovernanceLoad("proposal", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, s.view(item), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type createProposalRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Service) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	receipt, err := s.agg.CreateProposal(r.Context(), req.Title, req.Description, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, receipt, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type voteRequest struct {
	Choice   governance.Choice `json:"choice"`
	Metadata map[string]any    `json:"metadata"`
}

func (s *Service) Vote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	receipt, err := s.agg.Vote(r.Context(), governance.VoteParams{
		Proposal: id,
		Choice:   req.Choice,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, receipt, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type powerResponse struct {
	CommunityVotingPower                  float64 `json:"communityVotingPower"`
	VotingPowerSelf                       float64 `json:"votingPowerSelf"`
	PowerNeededToBecomeProposer           float64 `json:"powerNeededToBecomeProposer"`
	HasEnoughVotingPowerToBecomeAProposer bool    `json:"hasEnoughVotingPowerToBecomeAProposer"`
}

func (s *Service) GetPower(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := s.agg.LoadPowerInfo(r.Context())
	metrics.RecordGovernanceLoad("power", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, powerResponse{
		CommunityVotingPower:                  s.agg.CommunityVotingPower(),
		VotingPowerSelf:                       s.agg.VotingPowerSelf(),
		PowerNeededToBecomeProposer:           s.agg.PowerNeededToBecomeProposer(),
		HasEnoughVotingPowerToBecomeAProposer: s.agg.HasEnoughVotingPowerToBecomeAProposer(),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	err := com.Body(w, s.agg.Stats(), nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
