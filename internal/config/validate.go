package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-equities/internal/version"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the relations between fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, describeValidationError(err), err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	var problems []string

	if !c.Data.Bulk && len(c.Data.Tickers) == 0 {
		problems = append(problems, "data.tickers must not be empty when data.bulk is false")
	}

	if _, err := c.Data.StartOverride(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := c.Data.EndOverride(); err != nil {
		problems = append(problems, err.Error())
	}

	smaPairs := []struct {
		section string
		fast    int
		slow    int
	}{
		{"crossover_strategy_options", c.Crossover.SMA1, c.Crossover.SMA2},
		{"crossover_long_only_strategy_options", c.CrossoverLongOnly.SMA1, c.CrossoverLongOnly.SMA2},
		{"crossover_plus_strategy_options", c.CrossoverPlus.SMA1, c.CrossoverPlus.SMA2},
		{"ml_strategy_options", c.ML.SMA1, c.ML.SMA2},
	}
	for _, pair := range smaPairs {
		if pair.fast >= pair.slow {
			problems = append(problems, fmt.Sprintf("%s.sma1 (%d) must be less than sma2 (%d)", pair.section, pair.fast, pair.slow))
		}
	}

	if c.CrossoverPlus.RSICrossoverLow >= c.CrossoverPlus.RSICrossoverHigh {
		problems = append(problems, "crossover_plus_strategy_options.rsi_crossover_low must be less than rsi_crossover_high")
	}

	if c.CrossoverPlus.PPOFast >= c.CrossoverPlus.PPOSlow {
		problems = append(problems, "crossover_plus_strategy_options.ppo_fast must be less than ppo_slow")
	}

	if c.Pump.PriceComparisonLowerBound >= c.Pump.PriceComparisonUpperBound {
		problems = append(problems, "pump_strategy_options.price_comparison_lower_bound must be less than price_comparison_upper_bound")
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, strings.Join(problems, "; "))
	}

	return nil
}

func describeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return "invalid configuration"
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed %s", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return "invalid configuration: " + strings.Join(fields, ", ")
}
