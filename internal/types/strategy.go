package types

type StrategyName string

const (
	StrategyCrossover         StrategyName = "Crossover"
	StrategyCrossoverLongOnly StrategyName = "CrossoverLongOnly"
	StrategyCrossoverPlus     StrategyName = "CrossoverPlus"
	StrategyHolyGrail         StrategyName = "HolyGrail"
	StrategyPump              StrategyName = "Pump"
	StrategyBenchmark         StrategyName = "Benchmark"
	StrategyML                StrategyName = "MLStrategy"
)

// RunnableStrategies are the strategies that can be selected from the command line.
// Benchmark always runs alongside them.
var RunnableStrategies = []StrategyName{
	StrategyCrossover,
	StrategyCrossoverLongOnly,
	StrategyCrossoverPlus,
	StrategyHolyGrail,
	StrategyPump,
	StrategyML,
}
