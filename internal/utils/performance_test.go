package utils

import (
	"math"
	"time"
)

func (suite *UtilsTestSuite) TestCAGR() {
	suite.InDelta(10.0, CAGR(100, 110, 365), 0.01)
	suite.InDelta(0.0, CAGR(100, 100, 1000), 1e-12)
	suite.Equal(0.0, CAGR(100, 150, 0))
	suite.Equal(0.0, CAGR(0, 150, 100))
	suite.Equal(-100.0, CAGR(100, 0, 100))

	// two years of 21% total growth is 10% a year
	suite.InDelta(10.0, CAGR(100, 121, 730), 0.01)
}

func (suite *UtilsTestSuite) TestTotalReturn() {
	suite.InDelta(25.0, TotalReturn(100, 125), 1e-12)
	suite.Equal(0.0, TotalReturn(0, 125))
}

func (suite *UtilsTestSuite) TestMaxDrawdown() {
	suite.InDelta(50.0, MaxDrawdown([]float64{100, 120, 60, 110, 90}), 1e-12)
	suite.Equal(0.0, MaxDrawdown([]float64{1, 2, 3}))
	suite.Equal(0.0, MaxDrawdown(nil))
}

func (suite *UtilsTestSuite) TestDailyReturns() {
	returns := DailyReturns([]float64{100, 110, 99})
	suite.Require().Len(returns, 2)
	suite.InDelta(0.1, returns[0], 1e-12)
	suite.InDelta(-0.1, returns[1], 1e-12)
	suite.Nil(DailyReturns([]float64{100}))
}

func (suite *UtilsTestSuite) TestSharpe() {
	suite.Equal(0.0, Sharpe([]float64{0.01}))
	suite.Equal(0.0, Sharpe([]float64{0.01, 0.01, 0.01}))

	returns := []float64{0.01, -0.005, 0.02, 0.0}
	mean := 0.00625
	variance := (math.Pow(0.01-mean, 2) + math.Pow(-0.005-mean, 2) + math.Pow(0.02-mean, 2) + math.Pow(0-mean, 2)) / 3
	suite.InDelta(mean/math.Sqrt(variance)*math.Sqrt(252), Sharpe(returns), 1e-9)
}

func (suite *UtilsTestSuite) TestFormatDuration() {
	suite.Equal("00:00:00", FormatDuration(0))
	suite.Equal("00:01:05", FormatDuration(65*time.Second))
	suite.Equal("02:03:04", FormatDuration(2*time.Hour+3*time.Minute+4*time.Second+200*time.Millisecond))
	suite.Equal("27:46:40", FormatDuration(100000*time.Second))
}
