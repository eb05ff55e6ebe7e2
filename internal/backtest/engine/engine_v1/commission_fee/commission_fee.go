package commission_fee

import "github.com/rxtech-lab/argo-equities/pkg/errors"

type CommissionFee interface {
	// Calculate the commission for trading quantity shares at price. The sign of quantity is ignored.
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	BrokerTiered            Broker = "tiered"
	BrokerFixedPerShare     Broker = "fixed_per_share"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero"
)

var AllBrokers = []any{
	BrokerTiered,
	BrokerFixedPerShare,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the commission scheme for broker. perShare only
// applies to BrokerFixedPerShare, where zero selects DefaultPerShareCommission.
func GetCommissionFeeHandler(broker Broker, perShare float64) (CommissionFee, error) {
	switch broker {
	case BrokerTiered:
		return NewTieredCommissionFee(), nil
	case BrokerFixedPerShare:
		return NewFixedPerShareCommissionFee(perShare), nil
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee(), nil
	case BrokerZero:
		return NewZeroCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedBroker, "unsupported commission scheme %q", broker)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
