package commission_fee

// DefaultPerShareCommission is charged per share when no rate is configured.
const DefaultPerShareCommission = 0.02

// FixedPerShareCommissionFee charges a fixed amount for every share traded.
type FixedPerShareCommissionFee struct {
	PerShare float64
}

func NewFixedPerShareCommissionFee(perShare float64) CommissionFee {
	if perShare <= 0 {
		perShare = DefaultPerShareCommission
	}

	return &FixedPerShareCommissionFee{PerShare: perShare}
}

func (c *FixedPerShareCommissionFee) Calculate(quantity float64, _ float64) float64 {
	return abs(quantity) * c.PerShare
}
