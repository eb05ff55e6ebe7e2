package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// MarketData is one daily OHLCV bar for a ticker.
type MarketData struct {
	Symbol        string                   `csv:"Ticker" yaml:"symbol" json:"symbol"`
	Time          time.Time                `csv:"Date" yaml:"time" json:"time"`
	Open          float64                  `csv:"Open" yaml:"open" json:"open"`
	High          float64                  `csv:"High" yaml:"high" json:"high"`
	Low           float64                  `csv:"Low" yaml:"low" json:"low"`
	Close         float64                  `csv:"Close" yaml:"close" json:"close"`
	AdjustedClose optional.Option[float64] `csv:"-" yaml:"adjusted_close" json:"adjusted_close"`
	Volume        float64                  `csv:"Volume" yaml:"volume" json:"volume"`
}

// PriceSource selects which field of a bar feeds an indicator.
type PriceSource string

const (
	PriceSourceOpen   PriceSource = "open"
	PriceSourceHigh   PriceSource = "high"
	PriceSourceLow    PriceSource = "low"
	PriceSourceClose  PriceSource = "close"
	PriceSourceVolume PriceSource = "volume"
)

// Value returns the field of the bar named by source. Unknown sources read the close.
func (m MarketData) Value(source PriceSource) float64 {
	switch source {
	case PriceSourceOpen:
		return m.Open
	case PriceSourceHigh:
		return m.High
	case PriceSourceLow:
		return m.Low
	case PriceSourceVolume:
		return m.Volume
	default:
		return m.Close
	}
}

// WithAdjustedClose returns the bar with Close replaced by the adjusted close
// when one is present and non-zero.
func (m MarketData) WithAdjustedClose() MarketData {
	if m.AdjustedClose.IsSome() {
		if adjusted := m.AdjustedClose.Unwrap(); adjusted != 0 {
			m.Close = adjusted
		}
	}

	return m
}

// Date truncates the bar time to the calendar day in UTC.
func (m MarketData) Date() time.Time {
	return DateOf(m.Time)
}

// DateOf truncates t to midnight UTC of the same calendar day.
func DateOf(t time.Time) time.Time {
	y, mo, d := t.Date()

	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
