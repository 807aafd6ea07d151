package charts

import "github.com/viamover/moverd/internal/services/moverapi"

func FromTreasuryHourly(items []moverapi.TreasuryHourlyBalancesItem) []BalanceItem {
	out := make([]BalanceItem, 0, len(items))
	for _, i := range items {
		out = append(out, BalanceItem{
			Value:             i.BonusEarned,
			SnapshotTimestamp: i.SnapshotTimestamp,
			Year:              i.Year,
			Month:             i.Month,
			Hour:              i.Hour,
			Hourly:            true,
		})
	}
	return out
}

func FromTreasuryMonthly(items []moverapi.TreasuryMonthBonusesItem) []BalanceItem {
	out := make([]BalanceItem, 0, len(items))
	for _, i := range items {
		out = append(out, BalanceItem{
			Value:             i.BonusesEarned,
			SnapshotTimestamp: i.SnapshotTimestamp,
			Year:              i.Year,
			Month:             i.Month,
		})
	}
	return out
}

func FromSavingsMonthly(items []moverapi.SavingsPlusMonthBalanceItem) []BalanceItem {
	out := make([]BalanceItem, 0, len(items))
	for _, i := range items {
		out = append(out, BalanceItem{
			Value:             i.Balance,
			SnapshotTimestamp: i.SnapshotTimestamp,
			Year:              i.Year,
			Month:             i.Month,
		})
	}
	return out
}
