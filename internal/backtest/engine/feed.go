package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// Feed is the daily bar series of one ticker, revealed one bar at a time as the
// engine walks its calendar.
type Feed struct {
	symbol   string
	bars     []types.MarketData
	revealed int
	fresh    bool
}

// NewFeed creates a feed over bars, which must be sorted by date.
func NewFeed(symbol string, bars []types.MarketData) *Feed {
	return &Feed{
		symbol: symbol,
		bars:   bars,
	}
}

func (f *Feed) Symbol() string {
	return f.symbol
}

// Bars returns the whole series. Indicators are computed over it once before the run.
func (f *Feed) Bars() []types.MarketData {
	return f.bars
}

// Len is the number of bars revealed so far.
func (f *Feed) Len() int {
	return f.revealed
}

// Index is the position of the current bar in Bars, or -1 before the first bar.
func (f *Feed) Index() int {
	return f.revealed - 1
}

// Fresh reports whether the feed advanced on the current calendar date.
func (f *Feed) Fresh() bool {
	return f.fresh
}

// Current returns the latest revealed bar.
func (f *Feed) Current() optional.Option[types.MarketData] {
	return f.Ago(0)
}

// Ago returns the bar n bars before the current one.
func (f *Feed) Ago(n int) optional.Option[types.MarketData] {
	i := f.Index() - n
	if n < 0 || i < 0 {
		return optional.None[types.MarketData]()
	}

	return optional.Some(f.bars[i])
}

// Dates returns the date of every bar.
func (f *Feed) Dates() []time.Time {
	dates := make([]time.Time, len(f.bars))
	for i, bar := range f.bars {
		dates[i] = bar.Date()
	}

	return dates
}

// Advance reveals the next bar when it falls on date and reports whether it did.
func (f *Feed) Advance(date time.Time) bool {
	f.fresh = f.revealed < len(f.bars) && f.bars[f.revealed].Date().Equal(date)
	if f.fresh {
		f.revealed++
	}

	return f.fresh
}

// Reset hides every bar again.
func (f *Feed) Reset() {
	f.revealed = 0
	f.fresh = false
}
