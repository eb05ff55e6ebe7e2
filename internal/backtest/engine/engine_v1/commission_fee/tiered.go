package commission_fee

// TieredCommissionFee charges a flat fee per order that steps up with the order value,
// switching to a percentage of value for large orders.
type TieredCommissionFee struct{}

const (
	tierSmallLimit    = 1000.0
	tierMediumLimit   = 5000.0
	tierLargeLimit    = 20000.0
	tierSmallFee      = 9.95
	tierMediumFee     = 14.95
	tierLargeFee      = 19.95
	tierPercentageFee = 0.0011
)

func NewTieredCommissionFee() CommissionFee {
	return &TieredCommissionFee{}
}

func (c *TieredCommissionFee) Calculate(quantity float64, price float64) float64 {
	value := abs(quantity) * price

	switch {
	case value < tierSmallLimit:
		return tierSmallFee
	case value <= tierMediumLimit:
		return tierMediumFee
	case value <= tierLargeLimit:
		return tierLargeFee
	default:
		return tierPercentageFee * value
	}
}
