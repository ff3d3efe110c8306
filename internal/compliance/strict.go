package compliance

import "github.com/ntentasd/roomsense/pkg/types"

// Strict is the tighter policy applied to real readings only. It has no
// dark-room branch and checks noise on every band.
type Strict struct{}

func (Strict) Name() string { return PolicyStrict }

func (Strict) Classify(r types.Reading) types.Verdict {
	occ, t, h, l, n := r.Occupancy, r.Temp, r.Hum, r.Lux, r.Noise

	if occ == 0 {
		if between(t, 17.5, 20.5) && between(h, 40, 60) && l >= 430 && n < 50 {
			return verdict(types.StatusBorosEnergi, 0.0, 5)
		}
		return invalid
	}

	if occBetween(occ, 1, 18) &&
		19.5 < t && t <= 25.2 && between(h, 40, 60) && between(l, 380, 450) && n < 50 {
		return verdict(types.StatusIdeal, 0.0, 5)
	}

	if occBetween(occ, 19, 25) &&
		24.8 < t && t <= 26.8 && 50 < h && h <= 70 && between(l, 290, 400) && between(n, 40, 60) {
		return verdict(types.StatusOptimalisasi, 1.0, 25)
	}

	if occBetween(occ, 26, 30) &&
		26.3 < t && t <= 27.3 && 60 < h && h <= 75 && 430 < l && l <= 560 && between(n, 40, 65) {
		return verdict(types.StatusPeringatan, 1.0, 25)
	}

	if occBetween(occ, 31, 60) &&
		27.0 < t && t <= 28.8 && 65 < h && h <= 80 && 540 < l && l <= 660 && between(n, 40, 65) {
		return verdict(types.StatusPeringatan, 1.0, 75)
	}

	if occ > 60 && t > 28.3 && h > 70 && l > 640 && n > 55 {
		return verdict(types.StatusKritis, 2.0, 90)
	}

	return invalid
}
