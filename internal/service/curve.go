package service

import (
	"math"
	"math/rand"
	"time"
)

// ----------- Solar curve constants -----------
const (
	dawnHour     = 6  // generation starts
	rampEndHour  = 12 // ramp tops out
	peakEndHour  = 14 // midday plateau ends
	duskHour     = 20 // decline reaches zero
	nightHour    = 22 // residual glow ends, night begins
	nightEndHour = 6  // night ends (same as dawn)

	rampTopFraction  = 0.70 // of nameplate capacity at the top of the ramp
	peakFraction     = 0.75 // of nameplate capacity on the midday plateau
	duskResidualFrac = 0.10 // max residual fraction for hours 20-22

	peakJitter     = 0.075 // ±7.5% in the plateau band
	shoulderJitter = 0.10  // ±10% on ramp and decline
)

// SlotEnergy returns the baseline energy for one 2-hour slot of a unit with
// the given nameplate capacity. The magnitude class (night, ramp, plateau,
// decline, residual) is deterministic in the hour; only the bounded jitter is
// random, so callers must not assume bit-for-bit reproducibility.
func SlotEnergy(rng *rand.Rand, hour int, capacityW float64) float64 {
	switch {
	case hour < dawnHour || hour >= nightHour:
		return 0
	case hour < rampEndHour:
		frac := rampTopFraction * float64(hour-dawnHour) / float64(rampEndHour-dawnHour)
		return roundNonNegative(capacityW * frac * jitter(rng, shoulderJitter))
	case hour < peakEndHour:
		return roundNonNegative(capacityW * peakFraction * jitter(rng, peakJitter))
	case hour < duskHour:
		frac := rampTopFraction * float64(duskHour-hour) / float64(duskHour-peakEndHour)
		return roundNonNegative(capacityW * frac * jitter(rng, shoulderJitter))
	default:
		// Dusk residual: up to 10% of capacity, weighted by an independent
		// random factor rather than jittered around a baseline.
		return roundNonNegative(capacityW * duskResidualFrac * rng.Float64())
	}
}

// jitter returns a multiplicative factor in [1-spread, 1+spread].
func jitter(rng *rand.Rand, spread float64) float64 {
	return 1 + (rng.Float64()*2-1)*spread
}

func roundNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Round(v)
}

// ----------- Legacy seeding curve -----------
//
// SeedSlotEnergy is the seasonal-band formula used only by the historical
// seeding tool (cmd/seed). It is intentionally kept separate from SlotEnergy:
// it scales off a fixed seasonal base instead of nameplate capacity, and the
// two must never be combined or the statistical shape of seeded data drifts.

const seedJitter = 0.10

func seasonalBase(month time.Month) float64 {
	switch {
	case month >= time.June && month <= time.August:
		return 5000
	case month >= time.March && month <= time.May:
		return 4200
	case month >= time.September && month <= time.November:
		return 3400
	default:
		return 2600
	}
}

func seedTimeMultiplier(hour int) float64 {
	switch {
	case hour < 6 || hour >= 22:
		return 0
	case hour < 9:
		return 0.3
	case hour < 11:
		return 0.6
	case hour < 15:
		return 1.0
	case hour < 18:
		return 0.6
	case hour < 20:
		return 0.2
	default:
		return 0.05
	}
}

// SeedSlotEnergy returns one seeded slot value for the legacy curve.
func SeedSlotEnergy(rng *rand.Rand, hour int, month time.Month) float64 {
	base := seasonalBase(month) * seedTimeMultiplier(hour)
	if base == 0 {
		return 0
	}
	return roundNonNegative(base * jitter(rng, seedJitter))
}
