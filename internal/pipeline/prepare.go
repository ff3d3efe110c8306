// Package pipeline turns aggregated sensor tables into labeled training
// samples and drives the batch from raw export to training CSV.
package pipeline

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/energy"
	"github.com/ntentasd/roomsense/internal/occupancy"
	"github.com/ntentasd/roomsense/internal/scenario"
	"github.com/ntentasd/roomsense/pkg/types"
)

// Options control gap synthesis. A zero GapStart disables it.
type Options struct {
	GapStart   time.Time
	GapEnd     time.Time
	GapStep    time.Duration
	SampleRate time.Duration
}

func DefaultOptions() Options {
	return Options{
		GapStart:   time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		GapEnd:     time.Date(2025, 12, 28, 23, 59, 59, 0, time.UTC),
		GapStep:    5 * time.Minute,
		SampleRate: time.Second,
	}
}

func (o Options) gapEnabled() bool {
	return !o.GapStart.IsZero() && !o.GapEnd.Before(o.GapStart) && o.GapStep > 0
}

// Report describes what a preparation pass did besides producing samples.
type Report struct {
	Synthesized []string
	GapRows     int
	// Dropped counts rows discarded before classification.
	Dropped int
	// Labels counts every verdict, Invalid included, before the purge.
	Labels  map[types.Status]int
	Invalid int
}

// Preparer owns the random source shared by occupancy inference, column
// synthesis and gap generation, so it must not be used concurrently.
type Preparer struct {
	policy  compliance.Policy
	inferer *occupancy.Inferer
	gen     *scenario.Generator
	rng     *rand.Rand
	opts    Options
	logger  zerolog.Logger
}

func NewPreparer(
	policy compliance.Policy,
	envs []scenario.Envelope,
	rng *rand.Rand,
	opts Options,
	logger zerolog.Logger,
) (*Preparer, error) {
	gen, err := scenario.New(envs, rng)
	if err != nil {
		return nil, err
	}
	return &Preparer{
		policy:  policy,
		inferer: occupancy.New(rng),
		gen:     gen,
		rng:     rng,
		opts:    opts,
		logger:  logger.With().Str("component", "preparer").Logger(),
	}, nil
}

func (p *Preparer) Policy() compliance.Policy {
	return p.policy
}

func cloneTable(t *types.Table) *types.Table {
	out := &types.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]types.Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		r := types.NewRow(row.Timestamp)
		for k, v := range row.Values {
			r.Values[k] = v
		}
		out.Rows[i] = r
	}
	return out
}

func (p *Preparer) synthesize(t *types.Table, col string, draw func() float64, rep *Report) {
	p.logger.Warn().
		Err(&MissingColumnError{Column: col}).
		Int("rows", len(t.Rows)).
		Msg("generating values for absent column")
	t.AddColumn(col)
	for _, row := range t.Rows {
		row.Set(col, draw())
	}
	rep.Synthesized = append(rep.Synthesized, col)
}

func (p *Preparer) uniformTemp() float64 {
	return 20 + p.rng.Float64()*10
}

func (p *Preparer) intn(lo, hi int) func() float64 {
	return func() float64 { return float64(lo + p.rng.Intn(hi-lo)) }
}

func sortByTimestamp(rows []types.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Timestamp, rows[j].Timestamp
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
}

func sampleRows(samples []types.Sample) []types.Row {
	rows := make([]types.Row, len(samples))
	for i, s := range samples {
		r := types.NewRow(s.Timestamp)
		r.Set(types.ColOccupancy, float64(s.Occupancy))
		r.Set(types.ColTemp, s.Temp)
		r.Set(types.ColHum, s.Hum)
		r.Set(types.ColLux, s.Lux)
		r.Set(types.ColNoise, s.Noise)
		rows[i] = r
	}
	return rows
}

// Prepare is the gap-aware preparation: real rows get inferred occupancy,
// the configured gap window is filled with scenario rows, and everything is
// labeled, purged of Invalid rows and rounded.
func (p *Preparer) Prepare(t *types.Table) ([]types.Sample, Report) {
	work := cloneTable(t)
	rep := Report{}

	for _, col := range types.SensorColumns {
		if !work.HasColumn(col) {
			p.synthesize(work, col, p.uniformTemp, &rep)
		}
	}

	work.AddColumn(types.ColOccupancy)
	for _, row := range work.Rows {
		if _, ok := row.Get(types.ColOccupancy); ok {
			continue
		}
		temp, _ := row.Get(types.ColTemp)
		hum, _ := row.Get(types.ColHum)
		row.Set(types.ColOccupancy, float64(p.inferer.Infer(temp, hum)))
	}

	rows := work.Rows
	if p.opts.gapEnabled() {
		gap := p.gen.Generate(p.opts.GapStart, p.opts.GapEnd, p.opts.GapStep, p.opts.SampleRate)
		rep.GapRows = len(gap)
		rows = append(rows, sampleRows(gap)...)
		p.logger.Debug().
			Time("start", p.opts.GapStart).
			Time("end", p.opts.GapEnd).
			Int("rows", len(gap)).
			Msg("generated gap rows")
	}

	sortByTimestamp(rows)
	kept := rows[:0]
	for _, row := range rows {
		if row.Timestamp.IsZero() {
			continue
		}
		if _, ok := row.Get(types.ColTemp); !ok {
			continue
		}
		kept = append(kept, row)
	}
	rep.Dropped = len(rows) - len(kept)

	return p.finish(kept, &rep), rep
}

// PrepareStrict labels real data only. Absent columns are synthesized
// from fixed ranges and any row missing a feature is dropped.
func (p *Preparer) PrepareStrict(t *types.Table) ([]types.Sample, Report) {
	work := cloneTable(t)
	rep := Report{}

	if !work.HasColumn(types.ColOccupancy) {
		p.synthesize(work, types.ColOccupancy, func() float64 {
			return float64(p.inferer.Sample(occupancy.DefaultBands))
		}, &rep)
	}
	for _, s := range []struct {
		col  string
		draw func() float64
	}{
		{types.ColHum, p.intn(45, 65)},
		{types.ColLux, p.intn(300, 500)},
		{types.ColNoise, p.intn(35, 55)},
		{types.ColTemp, p.uniformTemp},
	} {
		if !work.HasColumn(s.col) {
			p.synthesize(work, s.col, s.draw, &rep)
		}
	}

	rows := work.Rows
	sortByTimestamp(rows)
	kept := rows[:0]
	for _, row := range rows {
		if row.Timestamp.IsZero() || !row.Complete(types.FeatureColumns) {
			continue
		}
		kept = append(kept, row)
	}
	rep.Dropped = len(rows) - len(kept)

	return p.finish(kept, &rep), rep
}

func (p *Preparer) finish(rows []types.Row, rep *Report) []types.Sample {
	samples := Label(p.policy, rows)
	rep.Labels = make(map[types.Status]int)
	for _, s := range samples {
		rep.Labels[s.Status]++
	}
	samples, rep.Invalid = Purge(samples)
	Round(samples)
	return samples
}

// Label classifies rows into samples with an energy estimate. It has no
// side effects; a row without occupancy is Invalid.
func Label(policy compliance.Policy, rows []types.Row) []types.Sample {
	out := make([]types.Sample, len(rows))
	for i, row := range rows {
		out[i] = labelRow(policy, row)
	}
	return out
}

func labelRow(policy compliance.Policy, row types.Row) types.Sample {
	temp, _ := row.Get(types.ColTemp)
	hum, _ := row.Get(types.ColHum)
	lux, _ := row.Get(types.ColLux)
	noise, _ := row.Get(types.ColNoise)

	s := types.Sample{
		Timestamp: row.Timestamp,
		Reading:   types.Reading{Temp: temp, Hum: hum, Lux: lux, Noise: noise},
		EnergyKWh: energy.EstimateKWh(temp),
	}
	occ, ok := row.Get(types.ColOccupancy)
	if !ok {
		// no headcount, no rule can apply
		s.Verdict = compliance.Unmatched()
		return s
	}
	s.Occupancy = int(math.RoundToEven(occ))
	s.Verdict = policy.Classify(s.Reading)
	return s
}

// Purge removes Invalid samples and returns how many were removed.
func Purge(samples []types.Sample) ([]types.Sample, int) {
	kept := samples[:0]
	for _, s := range samples {
		if s.Status != types.StatusInvalid {
			kept = append(kept, s)
		}
	}
	return kept, len(samples) - len(kept)
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Round rounds the measured fields and the energy estimate to two decimals.
func Round(samples []types.Sample) {
	for i := range samples {
		s := &samples[i]
		s.Temp = round2(s.Temp)
		s.Hum = round2(s.Hum)
		s.Lux = round2(s.Lux)
		s.Noise = round2(s.Noise)
		s.EnergyKWh = round2(s.EnergyKWh)
	}
}
