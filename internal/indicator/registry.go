package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// Factory builds a fresh, unconfigured indicator.
type Factory func() Indicator

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(name types.IndicatorType, factory Factory) error
	CreateIndicator(name types.IndicatorType, params ...any) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	factories map[types.IndicatorType]Factory
	mu        sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		factories: make(map[types.IndicatorType]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultIndicatorRegistry returns a registry holding every built-in indicator.
func NewDefaultIndicatorRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()
	builtins := map[types.IndicatorType]Factory{
		types.IndicatorTypeSMA:       NewSMA,
		types.IndicatorTypeEMA:       NewEMA,
		types.IndicatorTypeRSI:       NewRSI,
		types.IndicatorTypeATR:       NewATR,
		types.IndicatorTypePPO:       NewPPO,
		types.IndicatorTypeADX:       NewADX,
		types.IndicatorTypeHighest:   NewHighest,
		types.IndicatorTypeLowest:    NewLowest,
		types.IndicatorTypeCrossOver: NewCrossOver,
	}

	for name, factory := range builtins {
		// names are unique in the map above
		_ = registry.RegisterIndicator(name, factory)
	}

	return registry
}

// RegisterIndicator adds an indicator factory to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(name types.IndicatorType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// CreateIndicator builds a new indicator and configures it with params.
func (r *IndicatorRegistryV1) CreateIndicator(name types.IndicatorType, params ...any) (Indicator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	indicator := factory()
	if err := indicator.Config(params...); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to configure %s", name)
	}

	return indicator, nil
}

// ListIndicators returns the sorted names of all registered indicators.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	delete(r.factories, name)

	return nil
}
