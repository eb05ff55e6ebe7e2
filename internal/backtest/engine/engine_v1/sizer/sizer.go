package sizer

import "math"

// Sizer decides how many shares a buy or sell without an explicit size trades.
type Sizer interface {
	Size(cash float64, price float64, isBuy bool) float64
}

// PercentSizer stakes a percentage of the starting cash while enough cash is left,
// then a percentage of whatever cash remains.
type PercentSizer struct {
	Percents     float64
	StartingCash float64
	// RetInt truncates the size to whole shares.
	RetInt bool
}

func NewPercentSizer(percents float64, startingCash float64, retInt bool) *PercentSizer {
	return &PercentSizer{
		Percents:     percents,
		StartingCash: startingCash,
		RetInt:       retInt,
	}
}

func (s *PercentSizer) Size(cash float64, price float64, _ bool) float64 {
	if price <= 0 || math.IsNaN(price) {
		return 0
	}

	var size float64
	if cash > s.StartingCash*s.Percents/100 {
		size = s.StartingCash * s.Percents / (100 * price)
	} else {
		size = cash * s.Percents / (100 * price)
	}

	if s.RetInt {
		size = math.Trunc(size)
	}

	return size
}

// FixedSizer always trades Stake shares.
type FixedSizer struct {
	Stake float64
}

func NewFixedSizer(stake float64) *FixedSizer {
	return &FixedSizer{Stake: stake}
}

func (s *FixedSizer) Size(_ float64, _ float64, _ bool) float64 {
	return s.Stake
}
