package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/stretchr/testify/suite"
)

type BacktestMarkerTestSuite struct {
	suite.Suite
	marker *BacktestMarker
}

func TestBacktestMarkerSuite(t *testing.T) {
	suite.Run(t, new(BacktestMarkerTestSuite))
}

func (suite *BacktestMarkerTestSuite) SetupTest() {
	var err error

	suite.marker, err = NewBacktestMarker(logger.NewNopLogger())
	suite.Require().NoError(err)
}

func (suite *BacktestMarkerTestSuite) TearDownTest() {
	suite.NoError(suite.marker.Close())
}

func (suite *BacktestMarkerTestSuite) TestMarkAndGetMarks() {
	armed := types.Mark{
		Symbol:   "BHP",
		Time:     d(3),
		Price:    41.5,
		Color:    types.MarkColorYellow,
		Shape:    types.MarkShapeCircle,
		Title:    "armed",
		Category: "HolyGrail",
		Signal: optional.Some(types.Signal{
			Type:   types.SignalTypeWait,
			Name:   "long entry",
			Reason: "bounce off the long ema",
		}),
	}
	fill := types.MarkForOrder(types.Order{
		Symbol:        "BHP",
		Side:          types.PurchaseTypeSell,
		ExecutedAt:    d(1),
		ExecutedPrice: 40,
		StrategyName:  "HolyGrail",
	})

	suite.Require().NoError(suite.marker.Mark(armed))
	suite.Require().NoError(suite.marker.Mark(fill))

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Require().Len(marks, 2)

	suite.Equal(d(1), marks[0].Time)
	suite.Equal(types.MarkColorRed, marks[0].Color)
	suite.True(marks[0].Signal.IsNone())

	suite.Equal("armed", marks[1].Title)
	suite.True(marks[1].Signal.IsSome())
	suite.Equal(types.SignalTypeWait, marks[1].Signal.Unwrap().Type)
	suite.Equal("BHP", marks[1].Signal.Unwrap().Symbol)
}

func (suite *BacktestMarkerTestSuite) TestWriteAndCleanup() {
	suite.Require().NoError(suite.marker.Mark(types.Mark{Symbol: "BHP", Time: d(1), Signal: optional.None[types.Signal]()}))

	dir := suite.T().TempDir()
	suite.Require().NoError(suite.marker.Write(dir))

	_, err := os.Stat(filepath.Join(dir, MarksFileName))
	suite.NoError(err)

	suite.Require().NoError(suite.marker.Cleanup())

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Empty(marks)
}

func (suite *BacktestMarkerTestSuite) TestNilMarker() {
	var marker *BacktestMarker

	suite.Error(marker.Mark(types.Mark{}))
	suite.NoError(marker.Close())
}
