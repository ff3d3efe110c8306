// Package occupancy backfills headcounts for readings that carry none.
package occupancy

import (
	"math/rand"
)

// Inferer draws plausible headcounts. It is not safe for concurrent use
// because it shares the caller's random source.
type Inferer struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Inferer {
	return &Inferer{rng: rng}
}

// between returns an integer in [lo, hi).
func (i *Inferer) between(lo, hi int) int {
	return lo + i.rng.Intn(hi-lo)
}

// Infer picks a headcount consistent with the room temperature: the
// hotter the room, the more people it is assumed to hold. Humidity is
// accepted for symmetry with the classifier but does not affect the draw.
func (i *Inferer) Infer(temp, _ float64) int {
	t := temp
	switch {
	case t > 28.3:
		return i.between(61, 90)
	case 27.0 < t && t <= 28.3:
		return i.between(31, 60)
	case 26.3 < t && t <= 27.0:
		return i.between(26, 30)
	case 24.8 < t && t <= 26.3:
		return i.between(19, 25)
	case 20.5 < t && t <= 24.8:
		return i.between(1, 18)
	case t <= 20.5:
		return 0
	}
	// NaN lands here.
	return i.between(1, 18)
}

// Band is an inclusive headcount range with a selection weight.
type Band struct {
	Min    int
	Max    int
	Weight float64
}

// DefaultBands is the headcount mix used when a table has no occupancy
// column at all.
var DefaultBands = []Band{
	{Min: 0, Max: 10, Weight: 0.10},
	{Min: 11, Max: 18, Weight: 0.20},
	{Min: 19, Max: 25, Weight: 0.20},
	{Min: 26, Max: 30, Weight: 0.20},
	{Min: 31, Max: 40, Weight: 0.15},
	{Min: 41, Max: 60, Weight: 0.15},
}

// Sample picks a band by weight and returns a headcount drawn uniformly
// from it. An empty band list yields 0.
func (i *Inferer) Sample(bands []Band) int {
	if len(bands) == 0 {
		return 0
	}
	var total float64
	for _, b := range bands {
		total += b.Weight
	}
	r := i.rng.Float64() * total
	chosen := bands[len(bands)-1]
	for _, b := range bands {
		if r < b.Weight {
			chosen = b
			break
		}
		r -= b.Weight
	}
	return chosen.Min + i.rng.Intn(chosen.Max-chosen.Min+1)
}
