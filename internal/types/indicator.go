package types

type IndicatorType string

const (
	IndicatorTypeSMA       IndicatorType = "sma"
	IndicatorTypeEMA       IndicatorType = "ema"
	IndicatorTypeRSI       IndicatorType = "rsi"
	IndicatorTypeATR       IndicatorType = "atr"
	IndicatorTypePPO       IndicatorType = "ppo"
	IndicatorTypeADX       IndicatorType = "adx"
	IndicatorTypeHighest   IndicatorType = "highest"
	IndicatorTypeLowest    IndicatorType = "lowest"
	IndicatorTypeCrossOver IndicatorType = "crossover"
)
