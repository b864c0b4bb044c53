package tiers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

//go:embed defaults.json
var defaultSettings []byte

// ConfigError reports a tier table that cannot be published.
type ConfigError struct {
	Tier   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Tier == "" {
		return "tier config: " + e.Reason
	}

	return fmt.Sprintf("tier config %q: %s", e.Tier, e.Reason)
}

// Source provides the persisted tier configuration.
type Source interface {
	TierSettings(ctx context.Context) (pkg.TierSettings, error)
}

// Table is an immutable snapshot of all tiers.
type Table struct {
	tiers map[string]pkg.Tier
}

// Lookup returns the tier and false when the name is unknown.
func (t *Table) Lookup(name string) (pkg.Tier, bool) {
	if t == nil {
		return pkg.Tier{}, false
	}

	tier, ok := t.tiers[name]
	return tier, ok
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.tiers))
	for name := range t.tiers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Registry publishes tier tables by swapping a pointer; readers never lock.
type Registry struct {
	table atomic.Pointer[Table]
}

// Defaults returns the embedded tier configuration.
func Defaults() pkg.TierSettings {
	var settings pkg.TierSettings
	if err := json.Unmarshal(defaultSettings, &settings); err != nil {
		panic(err)
	}

	return settings
}

// Store is a Source that can also persist settings.
type Store interface {
	Source
	SaveTierSettings(ctx context.Context, settings pkg.TierSettings) error
}

// Seed writes the embedded defaults when no tier configuration is stored yet,
// so operators edit a real record instead of an implicit default.
func Seed(ctx context.Context, store Store) (bool, error) {
	_, err := store.TierSettings(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return false, errors.Wrap(err, "load tier settings")
	}

	if err = store.SaveTierSettings(ctx, Defaults()); err != nil {
		return false, errors.Wrap(err, "save default tiers")
	}

	return true, nil
}

// NewRegistry returns a registry holding the embedded default tiers.
func NewRegistry() *Registry {
	table, err := build(Defaults())
	if err != nil {
		panic(err)
	}

	r := &Registry{}
	r.table.Store(table)
	return r
}

// Snapshot returns the current table. Callers that need a consistent view
// across several lookups must keep using the same snapshot.
func (r *Registry) Snapshot() *Table {
	return r.table.Load()
}

func (r *Registry) GetTier(name string) (pkg.Tier, error) {
	tier, ok := r.Snapshot().Lookup(name)
	if !ok {
		return pkg.Tier{}, errors.Wrap(pkg.ErrUnknownTier, name)
	}

	return tier, nil
}

// Reload replaces the whole table with the configuration from source. A
// missing settings record keeps the current table.
func (r *Registry) Reload(ctx context.Context, source Source) error {
	settings, err := source.TierSettings(ctx)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load tier settings")
	}

	return r.Publish(settings)
}

// Publish validates settings and swaps them in.
func (r *Registry) Publish(settings pkg.TierSettings) error {
	table, err := build(settings)
	if err != nil {
		return err
	}

	r.table.Store(table)
	return nil
}

func build(settings pkg.TierSettings) (*Table, error) {
	if len(settings.Tiers) == 0 {
		return nil, &ConfigError{Reason: "no tiers configured"}
	}

	one := decimal.NewFromInt(1)
	tiers := make(map[string]pkg.Tier, len(settings.Tiers))
	for name, cfg := range settings.Tiers {
		if name == "" {
			return nil, &ConfigError{Reason: "empty tier name"}
		}

		if cfg.Price.IsNegative() {
			return nil, &ConfigError{Tier: name, Reason: "negative price"}
		}

		if len(cfg.CommissionRates) > pkg.MaxLevels {
			return nil, &ConfigError{Tier: name, Reason: fmt.Sprintf("more than %d commission rates", pkg.MaxLevels)}
		}

		sum := decimal.Zero
		rates := make([]decimal.Decimal, len(cfg.CommissionRates))
		for i, rate := range cfg.CommissionRates {
			if rate.IsNegative() || rate.GreaterThan(one) {
				return nil, &ConfigError{Tier: name, Reason: fmt.Sprintf("rate %s at level %d out of [0,1]", rate, i+1)}
			}
			sum = sum.Add(rate)
			rates[i] = rate
		}

		// a payment can never owe more than itself
		if sum.GreaterThan(one) {
			return nil, &ConfigError{Tier: name, Reason: "commission rates add up to more than 1"}
		}

		tiers[name] = pkg.Tier{Name: name, Price: cfg.Price, CommissionRates: rates, Enabled: cfg.Enabled}
	}

	return &Table{tiers: tiers}, nil
}
