package compliance

import "github.com/ntentasd/roomsense/pkg/types"

// GapAware is the policy used when the training table is padded with
// synthetic scenario rows. Empty rooms and occupied-but-dark rooms are
// decided before any occupancy band is considered.
type GapAware struct{}

func (GapAware) Name() string { return PolicyGapAware }

func (GapAware) Classify(r types.Reading) types.Verdict {
	occ, t, h, l, n := r.Occupancy, r.Temp, r.Hum, r.Lux, r.Noise

	// Empty room: cooling plus lights means waste, both off is ideal.
	if occ == 0 {
		switch {
		case t <= 23.5 && l > 150:
			return verdict(types.StatusBorosEnergi, 0.0, 5)
		case t > 23.5 && l <= 150:
			return verdict(types.StatusIdeal, 0.0, 5)
		default:
			return invalid
		}
	}

	// Occupied but dark, graded by temperature only.
	if occ > 0 && l < 290 {
		switch {
		case between(t, 25.8, 27.1):
			return verdict(types.StatusPeringatan, 0.0, 5)
		case 22.7 <= t && t < 25.8:
			return verdict(types.StatusPeringatan, 0.0, 5)
		case 19.5 <= t && t < 22.7:
			return verdict(types.StatusPeringatan, -1.0, 25)
		case t < 19.5:
			return verdict(types.StatusPeringatan, -2.0, 75)
		default:
			return verdict(types.StatusPeringatan, 2.0, 75)
		}
	}

	if occBetween(occ, 1, 18) &&
		between(t, 19.5, 25.5) && between(h, 40, 65) && between(l, 290, 500) && n < 55 {
		return verdict(types.StatusIdeal, 0.0, 5)
	}

	// Humidity and noise are not checked for this band.
	if occBetween(occ, 19, 25) && between(t, 24.0, 27.0) && between(l, 290, 450) {
		return verdict(types.StatusOptimalisasi, 0.5, 10)
	}

	if occBetween(occ, 26, 30) &&
		26.3 < t && t <= 27.3 && 60 < h && h <= 75 && 430 < l && l <= 560 {
		return verdict(types.StatusPeringatan, 1.0, 25)
	}

	if occBetween(occ, 31, 60) &&
		27.0 < t && t <= 28.8 && 65 < h && h <= 80 && 540 < l && l <= 660 {
		return verdict(types.StatusPeringatan, 1.5, 50)
	}

	if occ > 60 && t > 28.3 && h > 70 && l > 640 {
		return verdict(types.StatusKritis, 2.5, 90)
	}

	return invalid
}
