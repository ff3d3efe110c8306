package pipeline

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/scenario"
	"github.com/ntentasd/roomsense/pkg/types"
)

var t0 = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func newPreparer(t *testing.T, policy compliance.Policy, opts Options) *Preparer {
	t.Helper()
	p, err := NewPreparer(policy, scenario.DefaultEnvelopes(), rand.New(rand.NewSource(42)), opts, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func sensorRow(ts time.Time, temp, hum, lux, noise float64) types.Row {
	r := types.NewRow(ts)
	r.Set(types.ColTemp, temp)
	r.Set(types.ColHum, hum)
	r.Set(types.ColLux, lux)
	r.Set(types.ColNoise, noise)
	return r
}

func cleanTable() *types.Table {
	return &types.Table{
		Columns: []string{types.ColTemp, types.ColHum, types.ColNoise, types.ColLux},
		Rows: []types.Row{
			sensorRow(t0.Add(2*time.Second), 22, 50, 100, 40), // dark, occupied
			sensorRow(t0, 22, 50, 400, 40),                    // ideal
			sensorRow(t0.Add(time.Second), 19, 50, 100, 40),   // empty and dark
			sensorRow(t0.Add(3*time.Second), math.NaN(), 50, 400, 40),
			sensorRow(time.Time{}, 22, 50, 400, 40),
		},
	}
}

func TestPrepareWithoutGap(t *testing.T) {
	p := newPreparer(t, compliance.GapAware{}, Options{})
	in := cleanTable()

	samples, rep := p.Prepare(in)
	assert.Empty(t, rep.Synthesized)
	assert.Zero(t, rep.GapRows)
	assert.Equal(t, 2, rep.Dropped)
	assert.Equal(t, 1, rep.Invalid)
	assert.Equal(t, 1, rep.Labels[types.StatusInvalid])

	require.Len(t, samples, 2)
	assert.Equal(t, t0, samples[0].Timestamp)
	assert.Equal(t, types.StatusIdeal, samples[0].Status)
	assert.GreaterOrEqual(t, samples[0].Occupancy, 1)
	assert.LessOrEqual(t, samples[0].Occupancy, 17)
	assert.Equal(t, 0.67, samples[0].EnergyKWh)

	assert.Equal(t, types.StatusPeringatan, samples[1].Status)
	assert.Equal(t, -1.0, samples[1].PMV)
	assert.Equal(t, 25.0, samples[1].PPD)

	// input is not modified
	assert.False(t, in.HasColumn(types.ColOccupancy))
}

func TestPrepareKeepsExistingOccupancy(t *testing.T) {
	p := newPreparer(t, compliance.GapAware{}, Options{})
	in := cleanTable()
	in.AddColumn(types.ColOccupancy)
	in.Rows[1].Set(types.ColOccupancy, 12)

	samples, _ := p.Prepare(in)
	require.NotEmpty(t, samples)
	assert.Equal(t, 12, samples[0].Occupancy)
}

func TestPrepareFillsGap(t *testing.T) {
	opts := Options{
		GapStart:   t0.Add(time.Hour),
		GapEnd:     t0.Add(time.Hour + 10*time.Minute),
		GapStep:    5 * time.Minute,
		SampleRate: time.Second,
	}
	p := newPreparer(t, compliance.GapAware{}, opts)

	samples, rep := p.Prepare(cleanTable())
	assert.Equal(t, 601, rep.GapRows)

	total := 0
	for _, n := range rep.Labels {
		total += n
	}
	assert.Equal(t, total-rep.Invalid, len(samples))

	for i, s := range samples {
		assert.NotEqual(t, types.StatusInvalid, s.Status)
		assert.False(t, s.Timestamp.IsZero())
		if i > 0 {
			assert.False(t, s.Timestamp.Before(samples[i-1].Timestamp))
		}
		assert.Equal(t, round2(s.Temp), s.Temp)
		assert.Equal(t, round2(s.EnergyKWh), s.EnergyKWh)
	}
}

func TestPrepareSynthesizesAbsentSensorColumn(t *testing.T) {
	p := newPreparer(t, compliance.GapAware{}, Options{})
	in := &types.Table{Columns: []string{types.ColTemp, types.ColHum, types.ColLux}}
	for i := 0; i < 20; i++ {
		r := types.NewRow(t0.Add(time.Duration(i) * time.Second))
		r.Set(types.ColTemp, 22)
		r.Set(types.ColHum, 50)
		r.Set(types.ColLux, 400)
		in.Rows = append(in.Rows, r)
	}

	samples, rep := p.Prepare(in)
	assert.Equal(t, []string{types.ColNoise}, rep.Synthesized)
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.Noise, 20.0)
		assert.LessOrEqual(t, s.Noise, 30.0)
	}
}

func TestPrepareStrict(t *testing.T) {
	p := newPreparer(t, compliance.Strict{}, Options{})
	in := &types.Table{Columns: []string{types.ColTemp}}
	for i := 0; i < 200; i++ {
		r := types.NewRow(t0.Add(time.Duration(i) * time.Second))
		r.Set(types.ColTemp, 18+float64(i%12))
		in.Rows = append(in.Rows, r)
	}
	in.Rows = append(in.Rows, types.NewRow(t0.Add(time.Hour)))

	samples, rep := p.PrepareStrict(in)
	assert.ElementsMatch(t,
		[]string{types.ColOccupancy, types.ColHum, types.ColLux, types.ColNoise},
		rep.Synthesized)
	assert.Equal(t, 1, rep.Dropped)

	for _, s := range samples {
		assert.NotEqual(t, types.StatusInvalid, s.Status)
		assert.GreaterOrEqual(t, s.Occupancy, 0)
		assert.LessOrEqual(t, s.Occupancy, 60)
		assert.GreaterOrEqual(t, s.Hum, 45.0)
		assert.Less(t, s.Hum, 65.0)
		assert.GreaterOrEqual(t, s.Lux, 300.0)
		assert.Less(t, s.Lux, 500.0)
		assert.GreaterOrEqual(t, s.Noise, 35.0)
		assert.Less(t, s.Noise, 55.0)
	}
}

func TestPrepareStrictDropsIncompleteRows(t *testing.T) {
	p := newPreparer(t, compliance.Strict{}, Options{})
	in := cleanTable()
	in.AddColumn(types.ColOccupancy)
	for _, r := range in.Rows {
		r.Set(types.ColOccupancy, 10)
	}
	in.Rows[1].Set(types.ColHum, math.NaN())

	_, rep := p.PrepareStrict(in)
	assert.Empty(t, rep.Synthesized)
	// missing timestamp, missing temp, missing hum
	assert.Equal(t, 3, rep.Dropped)
}

func TestLabelIsPureMapping(t *testing.T) {
	r := sensorRow(t0, 22, 50, 400, 40)
	r.Set(types.ColOccupancy, 10)
	rows := []types.Row{r}

	a := Label(compliance.GapAware{}, rows)
	b := Label(compliance.GapAware{}, rows)
	assert.Equal(t, a, b)
	require.Len(t, a, 1)
	assert.Equal(t, types.Verdict{Status: types.StatusIdeal, PMV: 0, PPD: 5}, a[0].Verdict)
	assert.Equal(t, 0.67, a[0].EnergyKWh)

	noOcc := sensorRow(t0, 22, 50, 400, 40)
	for _, policy := range []compliance.Policy{compliance.GapAware{}, compliance.Strict{}} {
		got := Label(policy, []types.Row{noOcc})[0]
		assert.Equal(t, compliance.Unmatched(), got.Verdict, policy.Name())
		assert.Equal(t, 0.67, got.EnergyKWh)
	}
}

func TestPurge(t *testing.T) {
	in := []types.Sample{
		{Verdict: types.Verdict{Status: types.StatusIdeal}},
		{Verdict: types.Verdict{Status: types.StatusInvalid}},
		{Verdict: types.Verdict{Status: types.StatusKritis}},
	}
	out, n := Purge(in)
	assert.Equal(t, 1, n)
	require.Len(t, out, 2)
	assert.Equal(t, types.StatusKritis, out[1].Status)
}

func TestRound(t *testing.T) {
	s := []types.Sample{{Reading: types.Reading{Temp: 24.125, Hum: 55.5555, Lux: 400.004, Noise: 40}, EnergyKWh: 0.71}}
	Round(s)
	assert.Equal(t, 24.12, s[0].Temp)
	assert.Equal(t, 55.56, s[0].Hum)
	assert.Equal(t, 400.0, s[0].Lux)
	assert.Equal(t, 0.71, s[0].EnergyKWh)
}

func TestMissingColumnErrorIs(t *testing.T) {
	err := error(&MissingColumnError{Column: types.ColNoise})
	assert.ErrorIs(t, err, &MissingColumnError{})
	assert.ErrorIs(t, err, &MissingColumnError{Column: types.ColNoise})
	assert.NotErrorIs(t, err, &MissingColumnError{Column: types.ColLux})
}
