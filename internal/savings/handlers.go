package savings

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/internal/services/moverapi"
	"github.com/viamover/moverd/pkg/charts"
	"github.com/viamover/moverd/pkg/metrics"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/subsidized"
)

type API interface {
	SavingsPlusInfo(ctx context.Context, address common.Address) (*moverapi.SavingsPlusInfo, error)
	DepositTransactionData(ctx context.Context, address common.Address, amount *big.Int) (moverapi.DepositTransactionData, error)
	WithdrawTransactionData(ctx context.Context, address common.Address, to mover.Network, amount *big.Int) (moverapi.WithdrawTransactionData, error)
}

type Service struct {
	account   common.Address
	network   mover.Network
	api       API
	submitter *subsidized.Submitter
}

func NewService(account common.Address, network mover.Network, api API, submitter *subsidized.Submitter) *Service {
	return &Service{
		account:   account,
		network:   network,
		api:       api,
		submitter: submitter,
	}
}

func writeError(w http.ResponseWriter, err error) {
	if com.MoverErrorBody(w, err) {
		return
	}

	if errors.Is(err, com.ErrInvalidNumber) || errors.Is(err, mover.ErrUnknownNetwork) {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	com.ErrorBody(w, http.StatusInternalServerError, "INTERNAL", err)
}

func (s *Service) usdc(network mover.Network) (mover.SmallToken, error) {
	usdc, ok := mover.USDCAssetData(network)
	if !ok {
		return mover.SmallToken{}, &mover.InvalidNetworkForOperationError{Network: network, Supported: mover.NetworkPolygon}
	}
	return usdc, nil
}

func (s *Service) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.api.SavingsPlusInfo(r.Context(), s.account)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, info, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// GetChart returns the monthly balances as chart data
func (s *Service) GetChart(w http.ResponseWriter, r *http.Request) {
	chartType, err := charts.ParseChartType(r.URL.Query().Get("type"))
	if err != nil {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	period, err := charts.ParseFilterPeriod(r.URL.Query().Get("period"))
	if err != nil {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	info, err := s.api.SavingsPlusInfo(r.Context(), s.account)
	if err != nil {
		writeError(w, err)
		return
	}

	data := charts.BuildBalancesChartData(charts.FromSavingsMonthly(info.Last12MonthsBalances), chartType, period)

	err = com.Body(w, data, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type depositRequest struct {
	Amount     string `json:"amount"`
	Subsidized bool   `json:"subsidized"`
}

type depositResponse struct {
	Data  moverapi.DepositTransactionData `json:"data"`
	Relay *mover.RelayResult              `json:"relay,omitempty"`
}

func (s *Service) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	usdc, err := s.usdc(s.network)
	if err != nil {
		writeError(w, err)
		return
	}

	amount, err := com.ToWei(req.Amount, usdc.Decimals)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.api.DepositTransactionData(r.Context(), s.account, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := depositResponse{Data: data}

	if req.Subsidized {
		resp.Relay, err = s.submitter.SavingsDepositSubsidized(r.Context(), usdc, req.Amount)
		metrics.RecordRelaySubmission(string(subsidized.ActionSavingsDeposit), err)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	err = com.Body(w, resp, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type withdrawRequest struct {
	Amount  string `json:"amount"`
	Network string `json:"network"`
}

type withdrawResponse struct {
	Data  moverapi.WithdrawTransactionData `json:"data"`
	Relay *mover.RelayResult               `json:"relay,omitempty"`
}

// Withdraw returns how a withdrawal is executed. Withdrawals the backend
// executes are signed and relayed right away.
func (s *Service) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	to := s.network
	if req.Network != "" {
		n, err := mover.ParseNetwork(req.Network)
		if err != nil {
			writeError(w, err)
			return
		}
		to = n
	}

	usdc, err := s.usdc(to)
	if err != nil {
		writeError(w, err)
		return
	}

	amount, err := com.ToWei(req.Amount, usdc.Decimals)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.api.WithdrawTransactionData(r.Context(), s.account, to, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := withdrawResponse{Data: data}

	if data.WithdrawExecution() == moverapi.WithdrawExecutionBackend {
		resp.Relay, err = s.submitter.SavingsWithdrawSubsidized(r.Context(), req.Amount)
		metrics.RecordRelaySubmission(string(subsidized.ActionSavingsWithdraw), err)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	err = com.Body(w, resp, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
