package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Trade is a round trip on one ticker: it opens when the position leaves zero and
// closes when the position returns to zero.
type Trade struct {
	ID     string `yaml:"id" json:"id" csv:"id"`
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol"`
	// Size is the largest signed size the position reached during the trade.
	Size float64 `yaml:"size" json:"size" csv:"size"`
	// Price is the average entry price.
	Price      float64                    `yaml:"price" json:"price" csv:"price"`
	OpenedAt   time.Time                  `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
	ClosedAt   optional.Option[time.Time] `yaml:"closed_at" json:"closed_at" csv:"-"`
	ClosePrice float64                    `yaml:"close_price" json:"close_price" csv:"close_price"`
	// PnL is the gross profit and loss, PnLComm deducts every commission paid in the trade.
	PnL          float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	PnLComm      float64 `yaml:"pnl_comm" json:"pnl_comm" csv:"pnl_comm"`
	Commission   float64 `yaml:"commission" json:"commission" csv:"commission"`
	StrategyName string  `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
}

// IsOpen reports whether the trade still holds a position.
func (t *Trade) IsOpen() bool {
	return t.ClosedAt.IsNone()
}

// IsClosed reports whether the position has been flattened.
func (t *Trade) IsClosed() bool {
	return t.ClosedAt.IsSome()
}

// IsLong reports whether the trade was opened by a buy.
func (t *Trade) IsLong() bool {
	return t.Size > 0
}

// HoldingDays is the number of calendar days between open and close, or until asOf for open trades.
func (t *Trade) HoldingDays(asOf time.Time) int {
	end := asOf
	if t.IsClosed() {
		end = t.ClosedAt.Unwrap()
	}

	return int(DateOf(end).Sub(DateOf(t.OpenedAt)).Hours() / 24)
}

// Position represents current holdings of a ticker. Size is negative for shorts.
type Position struct {
	Symbol string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Size   float64 `yaml:"size" json:"size" csv:"size"`
	// Price is the average entry price of the open size.
	Price         float64   `yaml:"price" json:"price" csv:"price"`
	OpenTimestamp time.Time `yaml:"open_timestamp" json:"open_timestamp" csv:"open_timestamp"`
}

// IsLong reports whether the position holds shares.
func (p Position) IsLong() bool {
	return p.Size > 0
}

// IsShort reports whether the position is short.
func (p Position) IsShort() bool {
	return p.Size < 0
}

// IsFlat reports whether the position is empty.
func (p Position) IsFlat() bool {
	return p.Size == 0
}

// MarketValue is size times price, negative for shorts.
func (p Position) MarketValue(price float64) float64 {
	return decimal.NewFromFloat(p.Size).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// UnrealizedPnL is the gross profit of the open size marked at price.
func (p Position) UnrealizedPnL(price float64) float64 {
	diff := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(p.Price))

	return diff.Mul(decimal.NewFromFloat(p.Size)).InexactFloat64()
}
