// Package strategy defines the signal strategies, the regime-driven selector and a
// name registry for explicit overrides.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

// Strategy turns a price series into a per-bar long/flat signal.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Run returns the series extended with indicator columns and a signal for every bar.
	// Bars whose indicators are still warming up get SignalFlat.
	Run(series model.Series) model.SignalSeries
}

const (
	LabelMomentum        = "Momentum"
	LabelMeanReversion   = "Mean-Reversion"
	LabelMomentumDefault = "Momentum (Default)"
)

// ErrUnknownStrategy is returned when an override names no registered strategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// labels maps registry names to display labels.
var labels = map[string]string{
	"momentum":       LabelMomentum,
	"mean-reversion": LabelMeanReversion,
}

// Select maps a regime to the strategy that should trade it. The mapping is total: any
// regime other than Trending or High-Volatility-Sideways falls back to Momentum with a
// label that marks the fallback.
func Select(regime model.Regime) (Strategy, string) {
	switch regime {
	case model.RegimeTrending:
		return NewMomentum(), LabelMomentum
	case model.RegimeHighVolatilitySideways:
		return NewMeanReversion(), LabelMeanReversion
	default:
		return NewMomentum(), LabelMomentumDefault
	}
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// DefaultRegistry returns a registry with every built-in strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMomentum())
	r.Register(NewMeanReversion())
	return r
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Override looks up a strategy by name for a forced run. The label reads
// "<Label> (Override)" so reports never pass it off as a regime choice.
func (r *Registry) Override(name string) (Strategy, string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	s, ok := r.Get(key)
	if !ok {
		return nil, "", fmt.Errorf("%w %q (available: %s)", ErrUnknownStrategy, name, strings.Join(r.List(), ", "))
	}
	label, ok := labels[key]
	if !ok {
		label = s.Name()
	}
	return s, label + " (Override)", nil
}
