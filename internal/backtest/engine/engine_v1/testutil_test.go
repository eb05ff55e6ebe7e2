package engine

import (
	"time"

	"github.com/rxtech-lab/argo-equities/internal/types"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

// bar builds a daily bar where high and low bracket open and close by one.
func bar(symbol string, day int, open float64, closePrice float64) types.MarketData {
	return types.MarketData{
		Symbol: symbol,
		Time:   d(day),
		Open:   open,
		High:   max(open, closePrice) + 1,
		Low:    min(open, closePrice) - 1,
		Close:  closePrice,
		Volume: 1000,
	}
}

func orderStatuses(notifications []Notification) []types.OrderStatus {
	var statuses []types.OrderStatus

	for _, notification := range notifications {
		if notification.Order.IsSome() {
			statuses = append(statuses, notification.Order.Unwrap().Status)
		}
	}

	return statuses
}

func trades(notifications []Notification) []types.Trade {
	var out []types.Trade

	for _, notification := range notifications {
		if notification.Trade.IsSome() {
			out = append(out, notification.Trade.Unwrap())
		}
	}

	return out
}
