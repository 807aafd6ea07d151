package moverapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

type TreasuryMonthBonusesItem struct {
	BonusesEarned     float64 `json:"bonusesEarned"`
	SnapshotTimestamp int64   `json:"snapshotTimestamp"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
}

type TreasuryInfo struct {
	EarnedToday         float64                    `json:"earnedToday"`
	EarnedThisMonth     float64                    `json:"earnedThisMonth"`
	EarnedTotal         float64                    `json:"earnedTotal"`
	SpentToday          float64                    `json:"spentToday"`
	SpentThisMonth      float64                    `json:"spentThisMonth"`
	SpentTotal          float64                    `json:"spentTotal"`
	Last12MonthsBonuses []TreasuryMonthBonusesItem `json:"last12MonthsBonuses"`
	AvgDailyEarnings    float64                    `json:"avgDailyEarnings"`
	AvgDailySpendings   float64                    `json:"avgDailySpendings"`
}

type TreasuryHourlyBalancesItem struct {
	BonusEarned       float64 `json:"bonusEarned"`
	SnapshotTimestamp int64   `json:"snapshotTimestamp"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Day               int     `json:"day"`
	Hour              int     `json:"hour"`
}

type TreasuryReceiptActionItem struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	TxID      string  `json:"txId"`
	Timestamp int64   `json:"timestamp"`
}

type TreasuryReceipt struct {
	TotalAmountEarned  float64                      `json:"totalAmountEarned"`
	TotalAmountSpent   float64                      `json:"totalAmountSpent"`
	AvgDailyEarnings   float64                      `json:"avgDailyEarnings"`
	AvgDailySpendings  float64                      `json:"avgDailySpendings"`
	HourlyBalances     []TreasuryHourlyBalancesItem `json:"hourlyBalances"`
	MonthActionHistory []TreasuryReceiptActionItem  `json:"monthActionHistory"`
}

func (c *Client) TreasuryInfo(ctx context.Context, address common.Address) (*TreasuryInfo, error) {
	var info TreasuryInfo
	if err := c.do(ctx, http.MethodGet, c.apiviewURL+"/treasury/info/"+address.Hex(), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) TreasuryReceipt(ctx context.Context, address common.Address, year, month int) (*TreasuryReceipt, error) {
	u := fmt.Sprintf("%s/treasury/receipt/%s/%d/%d", c.apiviewURL, address.Hex(), year, month)

	var receipt TreasuryReceipt
	if err := c.do(ctx, http.MethodGet, u, nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}
