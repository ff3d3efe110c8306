// Package scenario synthesizes sensor rows for spans of the timeline that
// have no real readings.
//
// Key rows are drawn every step from a weighted set of named envelopes,
// then linearly interpolated down to the sample rate, so the synthetic
// data walks smoothly between regimes instead of jumping.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ntentasd/roomsense/pkg/types"
)

var ErrInvalidEnvelope = errors.New("invalid scenario envelope")

type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Min <= r.Max
}

// Envelope is a named regime: value ranges for each field plus the weight
// it is picked with. Occupancy bounds are inclusive integers.
type Envelope struct {
	Name      string  `yaml:"name" json:"name"`
	Weight    float64 `yaml:"weight" json:"weight"`
	Occupancy Range   `yaml:"occupancy" json:"occupancy"`
	Temp      Range   `yaml:"temp" json:"temp"`
	Hum       Range   `yaml:"hum" json:"hum"`
	Lux       Range   `yaml:"lux" json:"lux"`
	Noise     Range   `yaml:"noise" json:"noise"`
}

// DefaultEnvelopes spans every label the gap-aware policy can produce.
func DefaultEnvelopes() []Envelope {
	return []Envelope{
		{
			Name: "Kritis", Weight: 0.25,
			Occupancy: Range{61, 90}, Temp: Range{28.5, 31.0}, Hum: Range{72, 85},
			Lux: Range{650, 750}, Noise: Range{58, 75},
		},
		{
			Name: "Peringatan", Weight: 0.25,
			Occupancy: Range{31, 60}, Temp: Range{27.2, 28.5}, Hum: Range{66, 78},
			Lux: Range{545, 650}, Noise: Range{45, 60},
		},
		{
			Name: "Optimal", Weight: 0.20,
			Occupancy: Range{19, 25}, Temp: Range{25.0, 26.5}, Hum: Range{52, 68},
			Lux: Range{300, 390}, Noise: Range{42, 58},
		},
		{
			Name: "Ideal", Weight: 0.10,
			Occupancy: Range{1, 18}, Temp: Range{21.0, 24.0}, Hum: Range{45, 55},
			Lux: Range{390, 440}, Noise: Range{35, 45},
		},
		{
			// cold but empty
			Name: "Boros", Weight: 0.20,
			Occupancy: Range{0, 0}, Temp: Range{18.0, 20.0}, Hum: Range{42, 58},
			Lux: Range{440, 500}, Noise: Range{30, 48},
		},
	}
}

// Validate checks a set of envelopes before it is used for generation.
func Validate(envs []Envelope) error {
	if len(envs) == 0 {
		return fmt.Errorf("%w: no envelopes", ErrInvalidEnvelope)
	}
	var total float64
	for _, e := range envs {
		if e.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidEnvelope)
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) {
			return fmt.Errorf("%w: %s has negative weight", ErrInvalidEnvelope, e.Name)
		}
		for field, r := range map[string]Range{
			"occupancy": e.Occupancy, "temp": e.Temp, "hum": e.Hum, "lux": e.Lux, "noise": e.Noise,
		} {
			if !r.valid() {
				return fmt.Errorf("%w: %s.%s range [%v, %v]", ErrInvalidEnvelope, e.Name, field, r.Min, r.Max)
			}
		}
		if e.Occupancy.Min < 0 {
			return fmt.Errorf("%w: %s has negative occupancy", ErrInvalidEnvelope, e.Name)
		}
		total += e.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidEnvelope)
	}
	return nil
}

type Generator struct {
	envs  []Envelope
	total float64
	rng   *rand.Rand
}

// New builds a generator over envs. Weights need not sum to one.
func New(envs []Envelope, rng *rand.Rand) (*Generator, error) {
	if err := Validate(envs); err != nil {
		return nil, err
	}
	g := &Generator{envs: envs, rng: rng}
	for _, e := range envs {
		g.total += e.Weight
	}
	return g, nil
}

func (g *Generator) pick() Envelope {
	r := g.rng.Float64() * g.total
	for _, e := range g.envs {
		if r < e.Weight {
			return e
		}
		r -= e.Weight
	}
	return g.envs[len(g.envs)-1]
}

func (g *Generator) uniform(r Range) float64 {
	return r.Min + g.rng.Float64()*(r.Max-r.Min)
}

type key struct {
	ts        time.Time
	occupancy float64
	temp      float64
	hum       float64
	lux       float64
	noise     float64
}

func (g *Generator) draw(ts time.Time) key {
	e := g.pick()
	lo, hi := int(e.Occupancy.Min), int(e.Occupancy.Max)
	return key{
		ts:        ts,
		occupancy: float64(lo + g.rng.Intn(hi-lo+1)),
		temp:      g.uniform(e.Temp),
		hum:       g.uniform(e.Hum),
		lux:       g.uniform(e.Lux),
		noise:     g.uniform(e.Noise),
	}
}

// keys draws one key per step in [start, end].
func (g *Generator) keys(start, end time.Time, step time.Duration) []key {
	if end.Before(start) || step <= 0 {
		return nil
	}
	var ks []key
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		ks = append(ks, g.draw(ts))
	}
	return ks
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

func (k key) sample() types.Sample {
	return types.Sample{
		Timestamp: k.ts,
		Reading: types.Reading{
			Occupancy: int(math.RoundToEven(k.occupancy)),
			Temp:      k.temp,
			Hum:       k.hum,
			Lux:       k.lux,
			Noise:     k.noise,
		},
	}
}

// Generate returns synthetic samples from start to the last key at or
// before end, one every sampleRate, contiguous and strictly increasing.
// Samples carry only the reading; classification happens downstream.
func (g *Generator) Generate(start, end time.Time, step, sampleRate time.Duration) []types.Sample {
	if sampleRate <= 0 {
		sampleRate = time.Second
	}
	ks := g.keys(start, end, step)
	if len(ks) == 0 {
		return nil
	}

	last := ks[len(ks)-1]
	n := int(last.ts.Sub(start)/sampleRate) + 1
	out := make([]types.Sample, 0, n)

	i := 0
	for ts := start; !ts.After(last.ts); ts = ts.Add(sampleRate) {
		for i+1 < len(ks) && !ks[i+1].ts.After(ts) {
			i++
		}
		a := ks[i]
		if i+1 == len(ks) {
			s := a.sample()
			s.Timestamp = ts
			out = append(out, s)
			continue
		}
		b := ks[i+1]
		frac := float64(ts.Sub(a.ts)) / float64(b.ts.Sub(a.ts))
		k := key{
			ts:        ts,
			occupancy: lerp(a.occupancy, b.occupancy, frac),
			temp:      lerp(a.temp, b.temp, frac),
			hum:       lerp(a.hum, b.hum, frac),
			lux:       lerp(a.lux, b.lux, frac),
			noise:     lerp(a.noise, b.noise, frac),
		}
		out = append(out, k.sample())
	}
	return out
}
