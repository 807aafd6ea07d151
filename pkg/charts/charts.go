package charts

import (
	"errors"
	"math/big"
	"time"

	com "github.com/viamover/moverd/internal/common"
)

// balances are reported in USDC
const valueDecimals = 6

// hourly items are thinned to one every decimationPeriod hours on long periods
const decimationPeriod = 12

type ChartType string

const (
	ChartTypeBar  ChartType = "bar"
	ChartTypeLine ChartType = "line"
)

type FilterPeriod string

const (
	FilterPeriodMonth FilterPeriod = "month"
	FilterPeriodWeek  FilterPeriod = "week"
	FilterPeriodDay   FilterPeriod = "day"
)

var (
	ErrInvalidChartType = errors.New("invalid chart type")
	ErrInvalidPeriod    = errors.New("invalid filter period")
)

func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case "":
		return ChartTypeBar, nil
	case ChartTypeBar, ChartTypeLine:
		return ChartType(s), nil
	}
	return "", ErrInvalidChartType
}

func ParseFilterPeriod(s string) (FilterPeriod, error) {
	switch FilterPeriod(s) {
	case "":
		return FilterPeriodMonth, nil
	case FilterPeriodMonth, FilterPeriodWeek, FilterPeriodDay:
		return FilterPeriod(s), nil
	}
	return "", ErrInvalidPeriod
}

// BalanceItem is one point of a balance series. Hourly is set for hourly snapshots.
type BalanceItem struct {
	Value             float64
	SnapshotTimestamp int64
	Year              int
	Month             int
	Hour              int
	Hourly            bool
}

type ChartData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// endOfMonth is the last millisecond of the month of t
func endOfMonth(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, 0).Add(-time.Millisecond)
}

func periodLength(period FilterPeriod) time.Duration {
	if period == FilterPeriodWeek {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// filterByPeriod keeps the items within one period of the end of the
// month of the first item
func filterByPeriod(items []BalanceItem, period FilterPeriod) []BalanceItem {
	if period == FilterPeriodMonth || len(items) == 0 {
		return items
	}

	rightBound := endOfMonth(time.Unix(items[0].SnapshotTimestamp, 0).UTC())
	length := periodLength(period)

	filtered := []BalanceItem{}
	for _, item := range items {
		if rightBound.Sub(time.Unix(item.SnapshotTimestamp, 0)) < length {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

func label(item BalanceItem, chartType ChartType) string {
	if chartType == ChartTypeBar {
		return time.Date(item.Year, time.Month(item.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan, 06")
	}
	return time.Unix(item.SnapshotTimestamp, 0).UTC().Format("2006-01-02T15:04:05.000Z")
}

func scale(v float64) float64 {
	r := new(big.Rat)
	if r.SetFloat64(v) == nil {
		return 0
	}

	f, _ := r.Quo(r, new(big.Rat).SetInt(com.Pow10(valueDecimals))).Float64()
	return f
}

// BuildBalancesChartData turns a balance series into chart labels and values
func BuildBalancesChartData(items []BalanceItem, chartType ChartType, period FilterPeriod) ChartData {
	data := ChartData{
		Labels: []string{},
		Data:   []float64{},
	}

	for _, item := range filterByPeriod(items, period) {
		if item.Value == 0 {
			continue
		}

		if item.Hourly && item.Hour%decimationPeriod != 0 && (period == FilterPeriodMonth || period == FilterPeriodWeek) {
			continue
		}

		data.Labels = append(data.Labels, label(item, chartType))
		data.Data = append(data.Data, scale(item.Value))
	}

	return data
}
