package pipeline

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ntentasd/roomsense/pkg/types"
)

// summaryColumns are the numeric columns described in a Summary.
var summaryColumns = []string{
	types.ColOccupancy, types.ColTemp, types.ColHum, types.ColLux, types.ColNoise,
	types.ColEnergyKWh, types.ColPMV, types.ColPPD,
}

func sampleValue(s types.Sample, col string) float64 {
	switch col {
	case types.ColOccupancy:
		return float64(s.Occupancy)
	case types.ColTemp:
		return s.Temp
	case types.ColHum:
		return s.Hum
	case types.ColLux:
		return s.Lux
	case types.ColNoise:
		return s.Noise
	case types.ColEnergyKWh:
		return s.EnergyKWh
	case types.ColPMV:
		return s.PMV
	case types.ColPPD:
		return s.PPD
	}
	return math.NaN()
}

// Summarize reports the label distribution and descriptive statistics of
// the final samples. Percentages are over len(samples), rounded to two
// decimals.
func Summarize(samples []types.Sample) types.Summary {
	sum := types.Summary{
		Rows:         len(samples),
		Distribution: make(map[types.Status]types.LabelCount),
		Stats:        make(map[string]types.ColumnStats),
	}

	counts := make(map[types.Status]int)
	for _, s := range samples {
		counts[s.Status]++
	}
	for status, n := range counts {
		sum.Distribution[status] = types.LabelCount{
			Count:   n,
			Percent: round2(float64(n) / float64(len(samples)) * 100),
		}
	}

	for _, col := range summaryColumns {
		vs := make([]float64, 0, len(samples))
		for _, s := range samples {
			if v := sampleValue(s, col); !math.IsNaN(v) {
				vs = append(vs, v)
			}
		}
		if len(vs) == 0 {
			continue
		}
		cs := types.ColumnStats{
			Count: len(vs),
			Mean:  round2(stat.Mean(vs, nil)),
			Min:   floats.Min(vs),
			Max:   floats.Max(vs),
		}
		if len(vs) > 1 {
			cs.Std = round2(stat.StdDev(vs, nil))
		}
		sum.Stats[col] = cs
	}
	return sum
}
