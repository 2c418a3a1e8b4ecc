package service

import (
	"fmt"
	"math/rand"
	"time"
)

// AnomalyKind identifies one fault pattern the generator can simulate.
type AnomalyKind string

const (
	ZeroGeneration        AnomalyKind = "ZERO_GENERATION"
	SuddenDrop            AnomalyKind = "SUDDEN_DROP"
	CapacityFactor        AnomalyKind = "CAPACITY_FACTOR"
	IrregularPattern      AnomalyKind = "IRREGULAR_PATTERN"
	IrregularPatternNight AnomalyKind = "IRREGULAR_PATTERN_NIGHT"
)

// Transform factors and bounds.
const (
	suddenDropFactor     = 0.3
	capacityFactorValue  = 0.4
	irregularHighFactor  = 2.5
	irregularLowFactor   = 0.4
	irregularHighChance  = 0.5
	nightOverrideMin     = 50.0
	nightOverrideSpan    = 100.0 // value drawn from [min, min+span)
	nightStartsAfterHour = 20    // "night" is hour < 6 or hour > 20
)

// AnomalyRuleConfig is the on-disk shape of one rule, loaded from the
// `anomalies:` list in the config file. Dates are YYYY-MM-DD. StartHour and
// EndHour bound a [start, end) window; both zero means all hours.
type AnomalyRuleConfig struct {
	Kind      string `mapstructure:"kind"`
	Date      string `mapstructure:"date"` // single-date kinds
	From      string `mapstructure:"from"` // date-range kinds (inclusive)
	To        string `mapstructure:"to"`
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
}

// DefaultAnomalyRules is the built-in rule set used when the config file does
// not declare one.
func DefaultAnomalyRules() []AnomalyRuleConfig {
	return []AnomalyRuleConfig{
		{Kind: string(ZeroGeneration), Date: "2025-12-01", StartHour: 10, EndHour: 14},
		{Kind: string(SuddenDrop), Date: "2025-12-05", StartHour: 9, EndHour: 15},
		{Kind: string(CapacityFactor), From: "2025-12-10", To: "2025-12-16"},
		{Kind: string(IrregularPattern), Date: "2025-12-20"},
		{Kind: string(IrregularPatternNight), Date: "2025-12-22"},
	}
}

// anomalyRule is a compiled, matchable rule.
type anomalyRule struct {
	kind      AnomalyKind
	date      time.Time // UTC midnight; zero for range kinds
	from, to  time.Time // inclusive date range; zero for single-date kinds
	startHour int
	endHour   int
}

// AnomalyCatalog holds the process-wide ordered rule set. It is loaded once
// at startup and never mutated; evaluation is a linear scan in declaration
// order and the first matching rule wins.
type AnomalyCatalog struct {
	rules []anomalyRule
}

const dateLayout = "2006-01-02"

// NewAnomalyCatalog compiles rule configs, preserving declaration order.
func NewAnomalyCatalog(configs []AnomalyRuleConfig) (*AnomalyCatalog, error) {
	rules := make([]anomalyRule, 0, len(configs))
	for i, c := range configs {
		r := anomalyRule{
			kind:      AnomalyKind(c.Kind),
			startHour: c.StartHour,
			endHour:   c.EndHour,
		}
		if r.startHour == 0 && r.endHour == 0 {
			r.endHour = 24
		}
		switch r.kind {
		case ZeroGeneration, SuddenDrop, IrregularPattern, IrregularPatternNight:
			if c.Date == "" {
				return nil, fmt.Errorf("anomaly rule %d (%s): date is required", i+1, c.Kind)
			}
			d, err := time.Parse(dateLayout, c.Date)
			if err != nil {
				return nil, fmt.Errorf("anomaly rule %d (%s): bad date %q: %w", i+1, c.Kind, c.Date, err)
			}
			r.date = d.UTC()
		case CapacityFactor:
			from, err := time.Parse(dateLayout, c.From)
			if err != nil {
				return nil, fmt.Errorf("anomaly rule %d (%s): bad from %q: %w", i+1, c.Kind, c.From, err)
			}
			to, err := time.Parse(dateLayout, c.To)
			if err != nil {
				return nil, fmt.Errorf("anomaly rule %d (%s): bad to %q: %w", i+1, c.Kind, c.To, err)
			}
			if to.Before(from) {
				return nil, fmt.Errorf("anomaly rule %d (%s): to before from", i+1, c.Kind)
			}
			r.from, r.to = from.UTC(), to.UTC()
		default:
			return nil, fmt.Errorf("anomaly rule %d: unknown kind %q", i+1, c.Kind)
		}
		rules = append(rules, r)
	}
	return &AnomalyCatalog{rules: rules}, nil
}

// Apply evaluates the catalog against one (day, hour) slot. Rules are tried
// in declaration order; the first match transforms the energy value and stops
// the scan. Returns the possibly-transformed energy and whether any rule
// applied.
func (c *AnomalyCatalog) Apply(rng *rand.Rand, day time.Time, hour int, energy float64) (float64, bool) {
	for _, r := range c.rules {
		if !r.matches(day, hour) {
			continue
		}
		return r.transform(rng, energy), true
	}
	return energy, false
}

func (r anomalyRule) matches(day time.Time, hour int) bool {
	switch r.kind {
	case ZeroGeneration, SuddenDrop:
		return sameDate(day, r.date) && hour >= r.startHour && hour < r.endHour
	case CapacityFactor:
		d := dateOnly(day)
		return !d.Before(r.from) && !d.After(r.to)
	case IrregularPattern:
		return sameDate(day, r.date)
	case IrregularPatternNight:
		return sameDate(day, r.date) && (hour < dawnHour || hour > nightStartsAfterHour)
	default:
		return false
	}
}

func (r anomalyRule) transform(rng *rand.Rand, energy float64) float64 {
	switch r.kind {
	case ZeroGeneration:
		return 0
	case SuddenDrop:
		return roundNonNegative(energy * suddenDropFactor)
	case CapacityFactor:
		return roundNonNegative(energy * capacityFactorValue)
	case IrregularPattern:
		factor := irregularLowFactor
		if rng.Float64() < irregularHighChance {
			factor = irregularHighFactor
		}
		return roundNonNegative(energy * factor)
	case IrregularPatternNight:
		// Overrides the base value entirely.
		return roundNonNegative(nightOverrideMin + rng.Float64()*nightOverrideSpan)
	default:
		return energy
	}
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}
