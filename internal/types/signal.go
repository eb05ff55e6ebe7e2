package types

import "time"

type SignalType string

const (
	// SignalTypeBuyLong opens or adds to a long position
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellShort opens or adds to a short position
	SignalTypeSellShort SignalType = "sell_short"
	// SignalTypeClosePosition flattens the position
	SignalTypeClosePosition SignalType = "close_position"
	// SignalTypeNoAction means the signal was seen but not acted on
	SignalTypeNoAction SignalType = "no_action"
	// SignalTypeWait arms an entry that needs a later confirmation
	SignalTypeWait SignalType = "wait"
	// SignalTypeAbort disarms a previously armed entry
	SignalTypeAbort SignalType = "abort"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Name is the name of the strategy rule that fired
	Name string
	// Reason is the reason for the signal
	Reason string
	// Symbol is the ticker of the signal
	Symbol string
	// Indicator is the indicator that generated the signal
	Indicator IndicatorType
}
