package treasury

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/pkg/charts"
	"github.com/viamover/moverd/pkg/treasury"
)

// BonusReader reads the bonus balance held by the smart treasury contract
type BonusReader interface {
	BonusBalance(ctx context.Context, account common.Address) (*big.Rat, error)
}

type Service struct {
	account common.Address
	cache   *treasury.Service
	bonus   BonusReader
}

func NewService(account common.Address, cache *treasury.Service, bonus BonusReader) *Service {
	return &Service{
		account: account,
		cache:   cache,
		bonus:   bonus,
	}
}

func writeError(w http.ResponseWriter, err error) {
	if com.MoverErrorBody(w, err) {
		return
	}

	if errors.Is(err, com.ErrInvalidNumber) {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	com.ErrorBody(w, http.StatusBadGateway, "UPSTREAM", err)
}

func parseChart(r *http.Request) (charts.ChartType, charts.FilterPeriod, bool, error) {
	q := r.URL.Query()

	wanted, _ := strconv.ParseBool(q.Get("chart"))
	if !wanted {
		return "", "", false, nil
	}

	chartType, err := charts.ParseChartType(q.Get("type"))
	if err != nil {
		return "", "", false, err
	}

	period, err := charts.ParseFilterPeriod(q.Get("period"))
	if err != nil {
		return "", "", false, err
	}

	return chartType, period, true, nil
}

type infoResponse struct {
	Info  any               `json:"info"`
	Chart *charts.ChartData `json:"chart,omitempty"`
}

// GetInfo returns the cached treasury summary, with a chart of the monthly
// bonuses when ?chart=true
func (s *Service) GetInfo(w http.ResponseWriter, r *http.Request) {
	chartType, period, withChart, err := parseChart(r)
	if err != nil {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	info, err := s.cache.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := infoResponse{Info: info}
	if withChart {
		data := charts.BuildBalancesChartData(charts.FromTreasuryMonthly(info.Last12MonthsBonuses), chartType, period)
		resp.Chart = &data
	}

	err = com.Body(w, resp, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Service) GetReceipt(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	chartType, period, withChart, err := parseChart(r)
	if err != nil {
		com.ErrorBody(w, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	receipt, err := s.cache.Receipt(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := infoResponse{Info: receipt}
	if withChart {
		data := charts.BuildBalancesChartData(charts.FromTreasuryHourly(receipt.HourlyBalances), chartType, period)
		resp.Chart = &data
	}

	err = com.Body(w, resp, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type boostResponse struct {
	Boost string `json:"boost"`
}

func (s *Service) GetBoost(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	boost, err := treasury.CalcTreasuryBoost(q.Get("treasuryMove"), q.Get("treasuryLP"), q.Get("walletMove"), q.Get("walletLP"))
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, boostResponse{Boost: com.FormatDecimal(boost, 4)}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type bonusResponse struct {
	Bonus string `json:"bonus"`
}

// GetBonus reads the bonus balance straight from the contract
func (s *Service) GetBonus(w http.ResponseWriter, r *http.Request) {
	bonus, err := s.bonus.BonusBalance(r.Context(), s.account)
	if err != nil {
		writeError(w, err)
		return
	}

	err = com.Body(w, bonusResponse{Bonus: com.FormatDecimal(bonus, 6)}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
