package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *ConfigTestSuite) TestLoadFillsDefaults() {
	path := suite.writeConfig(`
data:
  path: prices
  benchmark: STW
  bulk: false
  tickers: [BHP, CBA]
broker:
  cash: 50000
crossover_strategy_options:
  sma1: 10
  sma2: 30
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal("prices", cfg.Data.Path)
	suite.Equal("STW", cfg.Data.Benchmark)
	suite.Equal([]string{"BHP", "CBA"}, cfg.Data.Tickers)
	suite.Equal(datasource.DateFormatCompact, cfg.Data.DateFormat)
	suite.Equal(datasource.DefaultColumns, cfg.Data.Cols)
	suite.Equal(50000.0, cfg.Broker.Cash)
	suite.Equal(commission_fee.BrokerTiered, cfg.Broker.Commission)
	suite.Equal(10, cfg.Crossover.SMA1)
	suite.Equal(30, cfg.Crossover.SMA2)
	suite.Equal(DefaultConfig().HolyGrail, cfg.HolyGrail)
	suite.Equal(DefaultConfig().CrossoverPlus.SMA2Range, cfg.CrossoverPlus.SMA2Range)
}

func (suite *ConfigTestSuite) TestEnvironmentOverride() {
	path := suite.writeConfig("broker:\n  cash: 50000\n")
	suite.T().Setenv("BACKTEST_BROKER_CASH", "7500")
	suite.T().Setenv("BACKTEST_GLOBAL_OPTIONS_CHEAT_ON_CLOSE", "true")

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(7500.0, cfg.Broker.Cash)
	suite.True(cfg.GlobalOptions.CheatOnClose)
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := Load(filepath.Join(suite.dir, "missing.yaml"))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeConfigReadFailed, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestInvalidFieldValue() {
	path := suite.writeConfig("broker:\n  commission: flat\n")

	_, err := Load(path)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
	suite.Contains(err.Error(), "Commission")
}

func (suite *ConfigTestSuite) TestCrossFieldValidation() {
	tests := []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"sma order", func(c *Config) { c.Crossover.SMA1 = 200 }, "crossover_strategy_options.sma1"},
		{"ml sma order", func(c *Config) { c.ML.SMA1, c.ML.SMA2 = 20, 20 }, "ml_strategy_options.sma1"},
		{"rsi levels", func(c *Config) { c.CrossoverPlus.RSICrossoverLow = 80 }, "rsi_crossover_low"},
		{"ppo periods", func(c *Config) { c.CrossoverPlus.PPOFast = 30 }, "ppo_fast"},
		{"pump bounds", func(c *Config) { c.Pump.PriceComparisonLowerBound = 2 }, "price_comparison_lower_bound"},
		{"tickers required", func(c *Config) { c.Data.Bulk = false }, "data.tickers"},
		{"start date layout", func(c *Config) { c.Data.StartDate = "2020-01-01" }, "data.start_date"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			suite.Require().Error(err)
			suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
			suite.Contains(err.Error(), tc.contains)
		})
	}
}

func (suite *ConfigTestSuite) TestIncompatibleVersion() {
	path := suite.writeConfig("version: 99.0.0\n")

	_, err := Load(path)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "major version mismatch")
}

func (suite *ConfigTestSuite) TestOptimiseRangeValidation() {
	cfg := DefaultConfig()
	cfg.CrossoverPlus.SMA1Range = OptimiseRange{Low: 50, High: 40, Step: 10}
	suite.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.CrossoverPlus.RSIPeriodRange.Step = 0
	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestDefaultConfigIsValid() {
	suite.NoError(DefaultConfig().Validate())
}

func (suite *ConfigTestSuite) TestOverrides() {
	cfg := DefaultConfig()
	cfg.Data.StartDate = "31/01/2015"

	start, err := cfg.Data.StartOverride()
	suite.Require().NoError(err)
	suite.Equal(time.Date(2015, 1, 31, 0, 0, 0, 0, time.UTC), start.Unwrap())

	end, err := cfg.Data.EndOverride()
	suite.Require().NoError(err)
	suite.True(end.IsNone())
}

func (suite *ConfigTestSuite) TestOptimiseRangeValues() {
	suite.Equal([]int{20, 30, 40, 50}, OptimiseRange{Low: 20, High: 60, Step: 10}.Values())
	suite.Equal([]int{10, 14, 18}, OptimiseRange{Low: 10, High: 20, Step: 4}.Values())
	suite.Empty(OptimiseRange{Low: 10, High: 10, Step: 1}.Values())
	suite.Nil(OptimiseRange{Low: 10, High: 20}.Values())
}

func (suite *ConfigTestSuite) TestLoadOptions() {
	cfg := DefaultConfig()
	cfg.GlobalOptions.UseAdjustedClose = true

	opts := cfg.LoadOptions()
	suite.True(opts.UseAdjustedClose)
	suite.Equal([]string{"constituents"}, opts.SkipFiles)
	suite.Equal(datasource.DateFormatCompact, opts.DateFormat)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	out, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &schema))
	suite.Equal("backtest-config", schema["title"])

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "broker")
	suite.Contains(properties, "holygrail_strategy_options")
	suite.Contains(out, "interactive_broker")
	suite.Contains(out, "dd-mm-yyyy")
}

func (suite *ConfigTestSuite) TestWriteSchemaAndSampleRoundTrip() {
	suite.Require().NoError(WriteSchemaAndSample(suite.dir))
	suite.FileExists(filepath.Join(suite.dir, SchemaFileName))

	cfg, err := Load(filepath.Join(suite.dir, SampleFileName))
	suite.Require().NoError(err)

	defaults := DefaultConfig()
	suite.Equal(defaults.Broker, cfg.Broker)
	suite.Equal(defaults.GlobalOptions, cfg.GlobalOptions)
	suite.Equal(defaults.CrossoverPlus, cfg.CrossoverPlus)
	suite.Equal(defaults.Pump, cfg.Pump)
	suite.Equal(defaults.Data.Cols, cfg.Data.Cols)
}
