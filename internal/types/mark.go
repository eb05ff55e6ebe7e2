package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type MarkShape string

const (
	MarkShapeCircle   MarkShape = "circle"
	MarkShapeSquare   MarkShape = "square"
	MarkShapeTriangle MarkShape = "triangle"
)

type MarkColor string

const (
	MarkColorRed    MarkColor = "red"
	MarkColorGreen  MarkColor = "green"
	MarkColorBlue   MarkColor = "blue"
	MarkColorYellow MarkColor = "yellow"
)

// Mark annotates a bar, typically a fill.
type Mark struct {
	Symbol   string
	Time     time.Time
	Price    float64
	Color    MarkColor
	Shape    MarkShape
	Title    string
	Message  string
	Category string
	Signal   optional.Option[Signal]
}

// MarkForOrder returns the buy/sell mark drawn for a completed order.
func MarkForOrder(order Order) Mark {
	mark := Mark{
		Symbol:   order.Symbol,
		Time:     order.ExecutedAt,
		Price:    order.ExecutedPrice,
		Shape:    MarkShapeTriangle,
		Title:    string(order.Side),
		Message:  order.Reason.Message,
		Category: order.StrategyName,
		Signal:   optional.None[Signal](),
	}

	if order.IsBuy() {
		mark.Color = MarkColorGreen
	} else {
		mark.Color = MarkColorRed
	}

	return mark
}
