package config

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/version"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// OverrideDateLayout is the layout of data.start_date and data.end_date (dd/mm/yyyy).
const OverrideDateLayout = "02/01/2006"

// Config holds all configuration for a backtest run.
type Config struct {
	Version           string               `mapstructure:"version" yaml:"version" json:"version" jsonschema:"title=Version,description=Backtester version the file was written for"`
	Data              DataConfig           `mapstructure:"data" yaml:"data" json:"data" jsonschema:"title=Data,description=Where the price data lives and which tickers to trade"`
	Broker            BrokerConfig         `mapstructure:"broker" yaml:"broker" json:"broker" jsonschema:"title=Broker,description=Starting cash and commission scheme"`
	GlobalOptions     GlobalOptions        `mapstructure:"global_options" yaml:"global_options" json:"global_options" jsonschema:"title=Global Options,description=Options shared by every strategy"`
	Crossover         CrossoverOptions     `mapstructure:"crossover_strategy_options" yaml:"crossover_strategy_options" json:"crossover_strategy_options" jsonschema:"title=Crossover"`
	CrossoverLongOnly CrossoverOptions     `mapstructure:"crossover_long_only_strategy_options" yaml:"crossover_long_only_strategy_options" json:"crossover_long_only_strategy_options" jsonschema:"title=Crossover Long Only"`
	CrossoverPlus     CrossoverPlusOptions `mapstructure:"crossover_plus_strategy_options" yaml:"crossover_plus_strategy_options" json:"crossover_plus_strategy_options" jsonschema:"title=Crossover Plus"`
	HolyGrail         HolyGrailOptions     `mapstructure:"holygrail_strategy_options" yaml:"holygrail_strategy_options" json:"holygrail_strategy_options" jsonschema:"title=Holy Grail"`
	Pump              PumpOptions          `mapstructure:"pump_strategy_options" yaml:"pump_strategy_options" json:"pump_strategy_options" jsonschema:"title=Pump"`
	ML                CrossoverOptions     `mapstructure:"ml_strategy_options" yaml:"ml_strategy_options" json:"ml_strategy_options" jsonschema:"title=ML Strategy"`
}

type DataConfig struct {
	// Path is the directory holding the per-ticker csv files or the combined data files.
	Path                string                `mapstructure:"path" yaml:"path" json:"path" jsonschema:"title=Path,description=Directory holding the price csv files" validate:"required"`
	Benchmark           string                `mapstructure:"benchmark" yaml:"benchmark" json:"benchmark" jsonschema:"title=Benchmark,description=Ticker the benchmark strategy buys and holds" validate:"required"`
	Tickers             []string              `mapstructure:"tickers" yaml:"tickers" json:"tickers" jsonschema:"title=Tickers,description=Tickers to trade when bulk is false"`
	TickersForExclusion []string              `mapstructure:"tickers_for_exclusion" yaml:"tickers_for_exclusion" json:"tickers_for_exclusion" jsonschema:"title=Excluded Tickers"`
	Bulk                bool                  `mapstructure:"bulk" yaml:"bulk" json:"bulk" jsonschema:"title=Bulk,description=Trade every ticker found in the data"`
	Constituents        string                `mapstructure:"constituents" yaml:"constituents" json:"constituents" jsonschema:"title=Constituents,description=Base name of the csv listing large-cap constituents"`
	Cols                []string              `mapstructure:"cols" yaml:"cols" json:"cols" jsonschema:"title=Columns,description=Column order of the per-ticker csv files" validate:"min=1"`
	DateFormat          datasource.DateFormat `mapstructure:"date_format" yaml:"date_format" json:"date_format" jsonschema:"title=Date Format" validate:"oneof=yyyymmdd dd-mm-yyyy yyyy-mm-dd"`
	StartDate           string                `mapstructure:"start_date" yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Optional dd/mm/yyyy start override"`
	EndDate             string                `mapstructure:"end_date" yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Optional dd/mm/yyyy end override"`
}

// StartOverride parses StartDate. An empty value is None.
func (d DataConfig) StartOverride() (optional.Option[time.Time], error) {
	return parseOverride("start_date", d.StartDate)
}

// EndOverride parses EndDate. An empty value is None.
func (d DataConfig) EndOverride() (optional.Option[time.Time], error) {
	return parseOverride("end_date", d.EndDate)
}

func parseOverride(key, value string) (optional.Option[time.Time], error) {
	if value == "" {
		return optional.None[time.Time](), nil
	}

	parsed, err := time.ParseInLocation(OverrideDateLayout, value, time.UTC)
	if err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeInvalidDateFormat, err, "data.%s must be dd/mm/yyyy, got %q", key, value)
	}

	return optional.Some(parsed), nil
}

// LoadOptions converts the data section into datasource load options.
func (c Config) LoadOptions() datasource.LoadOptions {
	skip := []string{}
	if c.Data.Constituents != "" {
		skip = append(skip, c.Data.Constituents)
	}

	return datasource.LoadOptions{
		Columns:          c.Data.Cols,
		DateFormat:       c.Data.DateFormat,
		UseAdjustedClose: c.GlobalOptions.UseAdjustedClose,
		SkipFiles:        skip,
	}
}

type BrokerConfig struct {
	Cash               float64               `mapstructure:"cash" yaml:"cash" json:"cash" jsonschema:"title=Cash,description=Starting cash,minimum=0" validate:"gt=0"`
	Commission         commission_fee.Broker `mapstructure:"commission" yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Commission scheme" validate:"oneof=tiered fixed_per_share interactive_broker zero"`
	CommissionPerShare float64               `mapstructure:"commission_per_share" yaml:"commission_per_share" json:"commission_per_share" jsonschema:"title=Commission Per Share,description=Fee per share for fixed_per_share,minimum=0" validate:"gte=0"`
}

type GlobalOptions struct {
	// Vectorised raises the minimum rows a ticker needs to the warm-up of the strategy indicators.
	Vectorised       bool    `mapstructure:"vectorised" yaml:"vectorised" json:"vectorised" jsonschema:"title=Vectorised"`
	PositionSize     float64 `mapstructure:"position_size" yaml:"position_size" json:"position_size" jsonschema:"title=Position Size,description=Percent of starting cash per position,minimum=0,maximum=100" validate:"gt=0,lte=100"`
	PositionLimit    int     `mapstructure:"position_limit" yaml:"position_limit" json:"position_limit" jsonschema:"title=Position Limit,description=Maximum number of open positions,minimum=1" validate:"gte=1"`
	SmallCapOnly     bool    `mapstructure:"small_cap_only" yaml:"small_cap_only" json:"small_cap_only" jsonschema:"title=Small Cap Only,description=In bulk mode skip tickers listed in the constituents file"`
	UseAdjustedClose bool    `mapstructure:"use_adjusted_close" yaml:"use_adjusted_close" json:"use_adjusted_close" jsonschema:"title=Use Adjusted Close"`
	CheatOnClose     bool    `mapstructure:"cheat_on_close" yaml:"cheat_on_close" json:"cheat_on_close" jsonschema:"title=Cheat On Close,description=Fill market orders at the close of the bar they were created on"`
	Reports          bool    `mapstructure:"reports" yaml:"reports" json:"reports" jsonschema:"title=Reports,description=Write parquet and stats.yaml results"`
	OutputDir        string  `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir" jsonschema:"title=Output Directory" validate:"required"`
	LogLevel         string  `mapstructure:"log_level" yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"oneof=debug info warn error"`
	LogFormat        string  `mapstructure:"log_format" yaml:"log_format" json:"log_format" jsonschema:"title=Log Format,enum=json,enum=console" validate:"oneof=json console"`
}

type CrossoverOptions struct {
	SMA1 int `mapstructure:"sma1" yaml:"sma1" json:"sma1" jsonschema:"title=Fast SMA Period,minimum=1" validate:"gte=1"`
	SMA2 int `mapstructure:"sma2" yaml:"sma2" json:"sma2" jsonschema:"title=Slow SMA Period,minimum=2" validate:"gte=2"`
}

// OptimiseRange is the half-open range [Low, High) walked with Step.
type OptimiseRange struct {
	Low  int `mapstructure:"low" yaml:"low" json:"low" jsonschema:"title=Low"`
	High int `mapstructure:"high" yaml:"high" json:"high" jsonschema:"title=High (exclusive)" validate:"gtfield=Low"`
	Step int `mapstructure:"step" yaml:"step" json:"step" jsonschema:"title=Step,minimum=1" validate:"gte=1"`
}

// Values lists the range's values.
func (r OptimiseRange) Values() []int {
	if r.Step <= 0 {
		return nil
	}

	values := make([]int, 0, (r.High-r.Low)/r.Step+1)
	for v := r.Low; v < r.High; v += r.Step {
		values = append(values, v)
	}

	return values
}

type CrossoverPlusOptions struct {
	SMA1             int `mapstructure:"sma1" yaml:"sma1" json:"sma1" jsonschema:"title=Fast SMA Period,minimum=1" validate:"gte=1"`
	SMA2             int `mapstructure:"sma2" yaml:"sma2" json:"sma2" jsonschema:"title=Slow SMA Period,minimum=2" validate:"gte=2"`
	RSIPeriod        int `mapstructure:"rsi_period" yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,minimum=1" validate:"gte=1"`
	RSICrossoverLow  int `mapstructure:"rsi_crossover_low" yaml:"rsi_crossover_low" json:"rsi_crossover_low" jsonschema:"title=RSI Buy Level,minimum=0,maximum=100" validate:"gte=0,lte=100"`
	RSICrossoverHigh int `mapstructure:"rsi_crossover_high" yaml:"rsi_crossover_high" json:"rsi_crossover_high" jsonschema:"title=RSI Sell Level,minimum=0,maximum=100" validate:"gte=0,lte=100"`
	PPOFast          int `mapstructure:"ppo_fast" yaml:"ppo_fast" json:"ppo_fast" jsonschema:"title=PPO Fast Period,minimum=1" validate:"gte=1"`
	PPOSlow          int `mapstructure:"ppo_slow" yaml:"ppo_slow" json:"ppo_slow" jsonschema:"title=PPO Slow Period,minimum=2" validate:"gte=2"`

	Optimise         bool          `mapstructure:"optimise" yaml:"optimise" json:"optimise" jsonschema:"title=Optimise,description=Backtest every combination of the ranges below"`
	SMA1Range        OptimiseRange `mapstructure:"sma1_range" yaml:"sma1_range" json:"sma1_range"`
	SMA2Range        OptimiseRange `mapstructure:"sma2_range" yaml:"sma2_range" json:"sma2_range"`
	RSILowRange      OptimiseRange `mapstructure:"rsi_crossover_low_range" yaml:"rsi_crossover_low_range" json:"rsi_crossover_low_range"`
	RSIHighRange     OptimiseRange `mapstructure:"rsi_crossover_high_range" yaml:"rsi_crossover_high_range" json:"rsi_crossover_high_range"`
	RSIPeriodRange   OptimiseRange `mapstructure:"rsi_period_range" yaml:"rsi_period_range" json:"rsi_period_range"`
	OptimiseParallel int           `mapstructure:"optimise_parallel" yaml:"optimise_parallel" json:"optimise_parallel" jsonschema:"title=Parallel Runs,description=0 uses GOMAXPROCS,minimum=0" validate:"gte=0"`
}

type HolyGrailOptions struct {
	ADXPeriod      int     `mapstructure:"adx_period" yaml:"adx_period" json:"adx_period" jsonschema:"title=ADX Period,minimum=1" validate:"gte=1"`
	ADXThreshold   float64 `mapstructure:"adx_threshold" yaml:"adx_threshold" json:"adx_threshold" jsonschema:"title=ADX Threshold,description=Entries are only armed while ADX is above this level" validate:"gte=0"`
	EMALongPeriod  int     `mapstructure:"ema_long_period" yaml:"ema_long_period" json:"ema_long_period" jsonschema:"title=Long EMA Period,minimum=1" validate:"gte=1"`
	EMAShortPeriod int     `mapstructure:"ema_short_period" yaml:"ema_short_period" json:"ema_short_period" jsonschema:"title=Short EMA Period,minimum=1" validate:"gte=1"`
	BounceOffMin   float64 `mapstructure:"bounce_off_min" yaml:"bounce_off_min" json:"bounce_off_min" jsonschema:"title=Bounce Off Minimum" validate:"gt=0"`
	BounceOffMax   float64 `mapstructure:"bounce_off_max" yaml:"bounce_off_max" json:"bounce_off_max" jsonschema:"title=Bounce Off Maximum" validate:"gt=0"`
	LagDays        int     `mapstructure:"lag_days" yaml:"lag_days" json:"lag_days" jsonschema:"title=Lag Days,description=Days an armed entry waits for confirmation,minimum=0" validate:"gte=0"`
}

type PumpOptions struct {
	VolumeAveragePeriod       int     `mapstructure:"volume_average_period" yaml:"volume_average_period" json:"volume_average_period" jsonschema:"title=Volume Average Period,minimum=1" validate:"gte=1"`
	PriceAveragePeriod        int     `mapstructure:"price_average_period" yaml:"price_average_period" json:"price_average_period" jsonschema:"title=Price Max Period,minimum=1" validate:"gte=1"`
	SellTimeout               int     `mapstructure:"sell_timeout" yaml:"sell_timeout" json:"sell_timeout" jsonschema:"title=Sell Timeout,description=Days before a position is abandoned" validate:"gte=0"`
	BuyTimeout                int     `mapstructure:"buy_timeout" yaml:"buy_timeout" json:"buy_timeout" jsonschema:"title=Buy Timeout,description=Days after a position ends before the ticker is bought again" validate:"gte=0"`
	VolumeFactor              float64 `mapstructure:"volume_factor" yaml:"volume_factor" json:"volume_factor" jsonschema:"title=Volume Factor" validate:"gt=0"`
	PriceComparisonLowerBound float64 `mapstructure:"price_comparison_lower_bound" yaml:"price_comparison_lower_bound" json:"price_comparison_lower_bound" jsonschema:"title=Price Ratio Lower Bound" validate:"gt=0"`
	PriceComparisonUpperBound float64 `mapstructure:"price_comparison_upper_bound" yaml:"price_comparison_upper_bound" json:"price_comparison_upper_bound" jsonschema:"title=Price Ratio Upper Bound" validate:"gt=0"`
	ProfitFactor              float64 `mapstructure:"profit_factor" yaml:"profit_factor" json:"profit_factor" jsonschema:"title=Profit Factor" validate:"gt=0"`
}

// DefaultConfig returns the configuration used for every key missing from the config file.
func DefaultConfig() Config {
	return Config{
		Version: version.GetVersion(),
		Data: DataConfig{
			Path:                "data",
			Benchmark:           "XJO",
			Tickers:             []string{},
			TickersForExclusion: []string{},
			Bulk:                true,
			Constituents:        "constituents",
			Cols:                append([]string{}, datasource.DefaultColumns...),
			DateFormat:          datasource.DateFormatCompact,
		},
		Broker: BrokerConfig{
			Cash:               100000,
			Commission:         commission_fee.BrokerTiered,
			CommissionPerShare: commission_fee.DefaultPerShareCommission,
		},
		GlobalOptions: GlobalOptions{
			Vectorised:    true,
			PositionSize:  5,
			PositionLimit: 20,
			Reports:       true,
			OutputDir:     "out",
			LogLevel:      "info",
			LogFormat:     "console",
		},
		Crossover:         CrossoverOptions{SMA1: 50, SMA2: 200},
		CrossoverLongOnly: CrossoverOptions{SMA1: 50, SMA2: 200},
		CrossoverPlus: CrossoverPlusOptions{
			SMA1:             50,
			SMA2:             200,
			RSIPeriod:        14,
			RSICrossoverLow:  30,
			RSICrossoverHigh: 70,
			PPOFast:          12,
			PPOSlow:          26,
			SMA1Range:        OptimiseRange{Low: 20, High: 60, Step: 10},
			SMA2Range:        OptimiseRange{Low: 100, High: 250, Step: 50},
			RSILowRange:      OptimiseRange{Low: 20, High: 40, Step: 10},
			RSIHighRange:     OptimiseRange{Low: 60, High: 80, Step: 10},
			RSIPeriodRange:   OptimiseRange{Low: 10, High: 20, Step: 4},
		},
		HolyGrail: HolyGrailOptions{
			ADXPeriod:      14,
			ADXThreshold:   30,
			EMALongPeriod:  20,
			EMAShortPeriod: 5,
			BounceOffMin:   1.03,
			BounceOffMax:   0.97,
			LagDays:        3,
		},
		Pump: PumpOptions{
			VolumeAveragePeriod:       20,
			PriceAveragePeriod:        20,
			SellTimeout:               10,
			BuyTimeout:                20,
			VolumeFactor:              3,
			PriceComparisonLowerBound: 1.05,
			PriceComparisonUpperBound: 1.5,
			ProfitFactor:              1.2,
		},
		ML: CrossoverOptions{SMA1: 50, SMA2: 200},
	}
}
