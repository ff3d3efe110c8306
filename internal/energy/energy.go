// Package energy estimates HVAC energy draw from room temperature.
package energy

import "math"

const (
	minTemp = 18.0
	maxTemp = 32.0
)

// kwhBins holds the draw for each 1°C bin starting at minTemp. Bin i
// covers [minTemp+i, minTemp+i+1).
var kwhBins = [...]float64{
	0.84, // [18,19)
	0.80,
	0.76,
	0.71,
	0.67,
	0.63,
	0.59, // [24,25)
	0.50,
	0.42,
	0.34,
	0.25, // [28,29)
	0.17,
	0.10,
	0.05, // [31,32)
}

// EstimateKWh maps a temperature to the estimated energy draw in kWh. A
// missing (NaN) temperature or one outside [18,32) yields 0.
func EstimateKWh(temp float64) float64 {
	if math.IsNaN(temp) || temp < minTemp || temp >= maxTemp {
		return 0.0
	}
	i := int(math.Floor(temp - minTemp))
	if i < 0 || i >= len(kwhBins) {
		return 0.0
	}
	return kwhBins[i]
}
