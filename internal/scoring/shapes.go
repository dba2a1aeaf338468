// Package scoring maps a RawMetrics snapshot to five pillar scores and an
// overall composite. Every function here is pure and deterministic.
package scoring

import "math"

// bandFloor is the score at or beyond a banded shape's hard bounds.
const bandFloor = 20

// LinearDecay scores 100 at or below ideal, 0 at or above worst, and
// interpolates linearly in between.
func LinearDecay(value, ideal, worst float64) float64 {
	if value <= ideal {
		return 100
	}
	if value >= worst {
		return 0
	}
	ratio := (value - ideal) / (worst - ideal)
	return Clamp(100-ratio*100, 0, 100)
}

// BandedIdeal scores 100 inside [idealMin, idealMax], 20 at or beyond the
// hard bounds, and interpolates between the hard and ideal bounds otherwise.
func BandedIdeal(value, idealMin, idealMax, hardMin, hardMax float64) float64 {
	if value >= idealMin && value <= idealMax {
		return 100
	}
	if value <= hardMin || value >= hardMax {
		return bandFloor
	}
	if value < idealMin {
		return bandFloor + (value-hardMin)/(idealMin-hardMin)*(100-bandFloor)
	}
	return bandFloor + (hardMax-value)/(hardMax-idealMax)*(100-bandFloor)
}

type weighted struct {
	value  float64
	weight float64
}

func weightedAvg(entries ...weighted) float64 {
	var sum, sumW float64
	for _, e := range entries {
		sum += e.value * e.weight
		sumW += e.weight
	}
	if sumW == 0 {
		return 0
	}
	return sum / sumW
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round1 rounds to one decimal place, with halves rounding up.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func presence(ok bool, present, absent float64) float64 {
	if ok {
		return present
	}
	return absent
}
