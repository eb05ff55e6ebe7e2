package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// intParam reads params[idx] as a positive int. Float values are truncated.
func intParam(params []any, idx int, name string) (int, error) {
	if idx >= len(params) {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "missing parameter %s", name)
	}

	var value int

	switch v := params[idx].(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case float64:
		value = int(v)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected int or float", name)
	}

	if value <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, value)
	}

	return value, nil
}

// sourceParam reads an optional price source at params[idx], defaulting to fallback.
func sourceParam(params []any, idx int, fallback types.PriceSource) (types.PriceSource, error) {
	if idx >= len(params) {
		return fallback, nil
	}

	var source types.PriceSource

	switch v := params[idx].(type) {
	case types.PriceSource:
		source = v
	case string:
		source = types.PriceSource(v)
	default:
		return "", errors.New(errors.ErrCodeInvalidParameter, "invalid type for source parameter, expected string")
	}

	switch source {
	case types.PriceSourceOpen, types.PriceSourceHigh, types.PriceSourceLow, types.PriceSourceClose, types.PriceSourceVolume:
		return source, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidSource, "unknown price source %q", source)
	}
}
