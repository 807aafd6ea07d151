package subsidized

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/pkg/metrics"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/subsidized"
)

// actions signed elsewhere are relayed for this long
const maxActionAge = 10 * time.Minute

type Service struct {
	network   mover.Network
	submitter *subsidized.Submitter
	clock     mover.Clock
}

func NewService(network mover.Network, submitter *subsidized.Submitter, clock mover.Clock) *Service {
	if clock == nil {
		clock = mover.SystemClock
	}

	return &Service{
		network:   network,
		submitter: submitter,
		clock:     clock,
	}
}

func writeError(w http.ResponseWriter, err error) {
	if com.MoverErrorBody(w, err) {
		return
	}

	var signErr *subsidized.SigningError
	switch {
	case errors.As(err, &signErr):
		com.ErrorBody(w, http.StatusBadGateway, "SIGNING_FAILED", err)
	case errors.Is(err, com.ErrInvalidNumber),
		errors.Is(err, subsidized.ErrOnlyMoveBurnable),
		errors.Is(err, subsidized.ErrInvalidQuote),
		errors.Is(err, subsidized.ErrMalformedAction):
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
	case errors.Is(err, subsidized.ErrStaleAction),
		errors.Is(err, com.ErrInvalidSignature),
		errors.Is(err, com.ErrSignerMismatch):
		com.ErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", err)
	default:
		com.ErrorBody(w, http.StatusInternalServerError, "INTERNAL", err)
	}
}

type allowedResponse struct {
	Allowed bool `json:"allowed"`
}

// IsAllowed reports whether the treasury bonus covers a fast transaction
func (s *Service) IsAllowed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	allowed, err := s.submitter.IsAllowed(r.Context(), q.Get("gasPrice"), q.Get("gasLimit"), q.Get("ethPrice"))
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, allowedResponse{Allowed: allowed}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type swapRequest struct {
	TokenIn   mover.SmallToken `json:"tokenIn"`
	TokenOut  mover.SmallToken `json:"tokenOut"`
	Amount    string           `json:"amount"`
	BuyAmount string           `json:"buyAmount"`
}

func (s *Service) Swap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var quote subsidized.Quote
	if req.BuyAmount != "" {
		buy, ok := new(big.Int).SetString(req.BuyAmount, 10)
		if !ok {
			writeError(w, com.ErrInvalidNumber)
			return
		}
		quote.BuyAmount = buy
	}

	res, err := s.submitter.SwapSubsidized(r.Context(), req.TokenIn, req.TokenOut, req.Amount, quote)
	metrics.RecordRelaySubmission(string(subsidized.ActionSwap), err)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, res, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type burnRequest struct {
	Token  *mover.SmallToken `json:"token,omitempty"`
	Amount string            `json:"amount"`
}

// Burn claims the treasury share of MOVE, the network MOVE token when none is given
func (s *Service) Burn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var token mover.SmallToken
	if req.Token != nil {
		token = *req.Token
	} else {
		move, ok := mover.MoveAssetData(s.network)
		if !ok {
			writeError(w, subsidized.ErrOnlyMoveBurnable)
			return
		}
		token = move
	}

	res, err := s.submitter.ClaimAndBurnSubsidized(r.Context(), token, req.Amount)
	metrics.RecordRelaySubmission(string(subsidized.ActionBurn), err)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, res, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Relay relays an action the caller signed with its own wallet
func (s *Service) Relay(w http.ResponseWriter, r *http.Request) {
	addr, ok := com.GetContextAddress(r.Context())
	if !ok || !common.IsHexAddress(addr) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	account := common.HexToAddress(addr)

	var action mover.PreparedAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	kind, err := subsidized.VerifyPreparedAction(action, account, s.clock.Now(), maxActionAge)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.submitter.SubmitPreparedFor(r.Context(), account, kind, action)
	metrics.RecordRelaySubmission(string(kind), err)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, res, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
