package config

import (
	"strings"

	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BACKTEST_BROKER_CASH overrides broker.cash.
const EnvPrefix = "BACKTEST"

// Load reads the YAML config at path. Keys missing from the file take their value from
// DefaultConfig and every key can be overridden from the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeConfigReadFailed, err, "failed to read config %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeConfigDecodeFailed, err, "failed to decode config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.benchmark", d.Data.Benchmark)
	v.SetDefault("data.tickers", d.Data.Tickers)
	v.SetDefault("data.tickers_for_exclusion", d.Data.TickersForExclusion)
	v.SetDefault("data.bulk", d.Data.Bulk)
	v.SetDefault("data.constituents", d.Data.Constituents)
	v.SetDefault("data.cols", d.Data.Cols)
	v.SetDefault("data.date_format", string(d.Data.DateFormat))
	v.SetDefault("data.start_date", d.Data.StartDate)
	v.SetDefault("data.end_date", d.Data.EndDate)

	v.SetDefault("broker.cash", d.Broker.Cash)
	v.SetDefault("broker.commission", string(d.Broker.Commission))
	v.SetDefault("broker.commission_per_share", d.Broker.CommissionPerShare)

	v.SetDefault("global_options.vectorised", d.GlobalOptions.Vectorised)
	v.SetDefault("global_options.position_size", d.GlobalOptions.PositionSize)
	v.SetDefault("global_options.position_limit", d.GlobalOptions.PositionLimit)
	v.SetDefault("global_options.small_cap_only", d.GlobalOptions.SmallCapOnly)
	v.SetDefault("global_options.use_adjusted_close", d.GlobalOptions.UseAdjustedClose)
	v.SetDefault("global_options.cheat_on_close", d.GlobalOptions.CheatOnClose)
	v.SetDefault("global_options.reports", d.GlobalOptions.Reports)
	v.SetDefault("global_options.output_dir", d.GlobalOptions.OutputDir)
	v.SetDefault("global_options.log_level", d.GlobalOptions.LogLevel)
	v.SetDefault("global_options.log_format", d.GlobalOptions.LogFormat)

	setCrossoverDefaults(v, "crossover_strategy_options", d.Crossover)
	setCrossoverDefaults(v, "crossover_long_only_strategy_options", d.CrossoverLongOnly)
	setCrossoverDefaults(v, "ml_strategy_options", d.ML)

	v.SetDefault("crossover_plus_strategy_options.sma1", d.CrossoverPlus.SMA1)
	v.SetDefault("crossover_plus_strategy_options.sma2", d.CrossoverPlus.SMA2)
	v.SetDefault("crossover_plus_strategy_options.rsi_period", d.CrossoverPlus.RSIPeriod)
	v.SetDefault("crossover_plus_strategy_options.rsi_crossover_low", d.CrossoverPlus.RSICrossoverLow)
	v.SetDefault("crossover_plus_strategy_options.rsi_crossover_high", d.CrossoverPlus.RSICrossoverHigh)
	v.SetDefault("crossover_plus_strategy_options.ppo_fast", d.CrossoverPlus.PPOFast)
	v.SetDefault("crossover_plus_strategy_options.ppo_slow", d.CrossoverPlus.PPOSlow)
	v.SetDefault("crossover_plus_strategy_options.optimise", d.CrossoverPlus.Optimise)
	v.SetDefault("crossover_plus_strategy_options.optimise_parallel", d.CrossoverPlus.OptimiseParallel)
	setRangeDefaults(v, "crossover_plus_strategy_options.sma1_range", d.CrossoverPlus.SMA1Range)
	setRangeDefaults(v, "crossover_plus_strategy_options.sma2_range", d.CrossoverPlus.SMA2Range)
	setRangeDefaults(v, "crossover_plus_strategy_options.rsi_crossover_low_range", d.CrossoverPlus.RSILowRange)
	setRangeDefaults(v, "crossover_plus_strategy_options.rsi_crossover_high_range", d.CrossoverPlus.RSIHighRange)
	setRangeDefaults(v, "crossover_plus_strategy_options.rsi_period_range", d.CrossoverPlus.RSIPeriodRange)

	v.SetDefault("holygrail_strategy_options.adx_period", d.HolyGrail.ADXPeriod)
	v.SetDefault("holygrail_strategy_options.adx_threshold", d.HolyGrail.ADXThreshold)
	v.SetDefault("holygrail_strategy_options.ema_long_period", d.HolyGrail.EMALongPeriod)
	v.SetDefault("holygrail_strategy_options.ema_short_period", d.HolyGrail.EMAShortPeriod)
	v.SetDefault("holygrail_strategy_options.bounce_off_min", d.HolyGrail.BounceOffMin)
	v.SetDefault("holygrail_strategy_options.bounce_off_max", d.HolyGrail.BounceOffMax)
	v.SetDefault("holygrail_strategy_options.lag_days", d.HolyGrail.LagDays)

	v.SetDefault("pump_strategy_options.volume_average_period", d.Pump.VolumeAveragePeriod)
	v.SetDefault("pump_strategy_options.price_average_period", d.Pump.PriceAveragePeriod)
	v.SetDefault("pump_strategy_options.sell_timeout", d.Pump.SellTimeout)
	v.SetDefault("pump_strategy_options.buy_timeout", d.Pump.BuyTimeout)
	v.SetDefault("pump_strategy_options.volume_factor", d.Pump.VolumeFactor)
	v.SetDefault("pump_strategy_options.price_comparison_lower_bound", d.Pump.PriceComparisonLowerBound)
	v.SetDefault("pump_strategy_options.price_comparison_upper_bound", d.Pump.PriceComparisonUpperBound)
	v.SetDefault("pump_strategy_options.profit_factor", d.Pump.ProfitFactor)
}

func setCrossoverDefaults(v *viper.Viper, section string, d CrossoverOptions) {
	v.SetDefault(section+".sma1", d.SMA1)
	v.SetDefault(section+".sma2", d.SMA2)
}

func setRangeDefaults(v *viper.Viper, key string, d OptimiseRange) {
	v.SetDefault(key+".low", d.Low)
	v.SetDefault(key+".high", d.High)
	v.SetDefault(key+".step", d.Step)
}
