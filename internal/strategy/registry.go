package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// Factory builds a strategy from the run options.
type Factory func(opts Options) (Strategy, error)

// Registry maps strategy names to their factories.
type Registry interface {
	Register(name types.StrategyName, factory Factory) error
	Create(name types.StrategyName, opts Options) (Strategy, error)
	List() []types.StrategyName
	Has(name types.StrategyName) bool
}

type registryV1 struct {
	factories map[types.StrategyName]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &registryV1{
		factories: make(map[types.StrategyName]Factory),
	}
}

// NewDefaultRegistry returns a registry holding every built-in strategy.
func NewDefaultRegistry() Registry {
	registry := NewRegistry()
	builtins := map[types.StrategyName]Factory{
		types.StrategyCrossover:         NewCrossover,
		types.StrategyCrossoverLongOnly: NewCrossoverLongOnly,
		types.StrategyCrossoverPlus:     NewCrossoverPlus,
		types.StrategyHolyGrail:         NewHolyGrail,
		types.StrategyPump:              NewPump,
		types.StrategyBenchmark:         NewBenchmark,
		types.StrategyML:                NewMLStrategy,
	}

	for name, factory := range builtins {
		// names are unique in the map above
		_ = registry.Register(name, factory)
	}

	return registry
}

func (r *registryV1) Register(name types.StrategyName, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create builds the named strategy. An unknown name lists the valid ones.
func (r *registryV1) Create(name types.StrategyName, opts Options) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "strategy %s must be one of %s", name, joinNames(r.List()))
	}

	strategy, err := factory(opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to create strategy %s", name)
	}

	return strategy, nil
}

func (r *registryV1) List() []types.StrategyName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.StrategyName, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func (r *registryV1) Has(name types.StrategyName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]

	return exists
}

func joinNames(names []types.StrategyName) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%q", name)
	}

	return strings.Join(parts, ", ")
}
