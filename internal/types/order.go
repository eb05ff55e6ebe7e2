package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

type PurchaseType string

type ExecutionType string

type OrderStatus string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	// ExecutionTypeMarket fills at the open of the next bar.
	ExecutionTypeMarket ExecutionType = "MARKET"
	// ExecutionTypeClose fills at the close of the bar the order was created on.
	ExecutionTypeClose ExecutionType = "CLOSE"
)

const (
	OrderStatusSubmitted OrderStatus = "Submitted"
	OrderStatusAccepted  OrderStatus = "Accepted"
	OrderStatusPartial   OrderStatus = "Partial"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCanceled  OrderStatus = "Canceled"
	OrderStatusExpired   OrderStatus = "Expired"
	OrderStatusMargin    OrderStatus = "Margin"
	OrderStatusRejected  OrderStatus = "Rejected"
)

// IsAlive reports whether the order can still be filled.
func (s OrderStatus) IsAlive() bool {
	return s == OrderStatusSubmitted || s == OrderStatusAccepted
}

const (
	OrderReasonStrategy             string = "strategy"
	OrderReasonClose                string = "close"
	OrderReasonInsufficientBuyPower string = "insufficient_buying_power"
	OrderReasonInvalidQuantity      string = "invalid_quantity"
	OrderReasonNoMarketData         string = "no_market_data"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// Order is a request to trade Quantity shares of Symbol. Quantity is always positive,
// the direction is carried by Side.
type Order struct {
	OrderID       string        `yaml:"order_id" json:"order_id" csv:"order_id" validate:"required,uuid"`
	Symbol        string        `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side          PurchaseType  `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	ExecutionType ExecutionType `yaml:"execution_type" json:"execution_type" csv:"execution_type" validate:"required,oneof=MARKET CLOSE"`
	Quantity      float64       `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gt=0"`
	Status        OrderStatus   `yaml:"status" json:"status" csv:"status"`
	// CreatedAt is the date of the bar on which the order was created.
	CreatedAt time.Time `yaml:"created_at" json:"created_at" csv:"created_at" validate:"required"`
	// CreatedPrice is the close of the bar on which the order was created.
	CreatedPrice float64 `yaml:"created_price" json:"created_price" csv:"created_price" validate:"gte=0"`
	// ExecutedAt, ExecutedPrice, ExecutedValue and Commission are set once the order fills.
	ExecutedAt    time.Time `yaml:"executed_at" json:"executed_at" csv:"executed_at"`
	ExecutedPrice float64   `yaml:"executed_price" json:"executed_price" csv:"executed_price"`
	ExecutedValue float64   `yaml:"executed_value" json:"executed_value" csv:"executed_value"`
	Commission    float64   `yaml:"commission" json:"commission" csv:"commission" validate:"gte=0"`
	Reason        Reason    `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	// StrategyName is the name of the strategy that created this order
	StrategyName string `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
}

// IsBuy reports whether the order adds to the position.
func (o *Order) IsBuy() bool {
	return o.Side == PurchaseTypeBuy
}

// SignedQuantity returns the quantity with sells negative.
func (o *Order) SignedQuantity() float64 {
	if o.IsBuy() {
		return o.Quantity
	}

	return -o.Quantity
}

// Slippage is executed price as a percentage of created price. Returns 0 before fill.
func (o *Order) Slippage() float64 {
	if o.CreatedPrice == 0 || o.ExecutedPrice == 0 {
		return 0
	}

	return 100 * o.ExecutedPrice / o.CreatedPrice
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
