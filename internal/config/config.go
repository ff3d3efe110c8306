// Package config loads service and batch settings from the environment,
// optionally layered over a YAML file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ntentasd/roomsense/internal/aggregate"
	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/csvio"
	"github.com/ntentasd/roomsense/internal/pipeline"
	"github.com/ntentasd/roomsense/internal/scenario"
)

var ErrInvalidConfig = errors.New("invalid config")

type Gap struct {
	Start      time.Time
	End        time.Time
	Step       time.Duration
	SampleRate time.Duration
}

type Config struct {
	Policy    string
	Seed      int64
	Threshold float64
	Gap       Gap
	Scenarios []scenario.Envelope
	Paths     pipeline.Paths

	ScyllaNodes    []string
	ScyllaKeyspace string
	ValkeyNodes    []string
	ValkeyService  string
	MemcachedAddr  string
	CacheTTL       time.Duration

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaSummaryTopic string

	TempoEndpoint string
	ListenAddr    string
	RunInterval   time.Duration

	LogLevel  string
	LogFormat string
}

func Default() Config {
	opts := pipeline.DefaultOptions()
	return Config{
		Policy:    compliance.PolicyGapAware,
		Threshold: aggregate.DefaultThreshold,
		Gap: Gap{
			Start:      opts.GapStart,
			End:        opts.GapEnd,
			Step:       opts.GapStep,
			SampleRate: opts.SampleRate,
		},
		Scenarios: scenario.DefaultEnvelopes(),
		Paths: pipeline.Paths{
			Raw:       "raw_data.csv",
			Extracted: "extracted_data.csv",
			Clean:     "clean_data.csv",
			Train:     "train_data.csv",
		},
		ScyllaKeyspace:    "roomsense",
		CacheTTL:          time.Hour,
		KafkaTopic:        "roomsense.samples",
		KafkaSummaryTopic: "roomsense.summaries",
		ListenAddr:        ":8080",
		RunInterval:       15 * time.Minute,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// file mirrors the YAML overlay. Absent keys keep their defaults.
type file struct {
	Policy    *string  `yaml:"policy"`
	Seed      *int64   `yaml:"seed"`
	Threshold *float64 `yaml:"threshold"`
	Gap       struct {
		Start      *string        `yaml:"start"`
		End        *string        `yaml:"end"`
		Step       *time.Duration `yaml:"step"`
		SampleRate *time.Duration `yaml:"sample_rate"`
		Disabled   bool           `yaml:"disabled"`
	} `yaml:"gap"`
	Scenarios []scenario.Envelope `yaml:"scenarios"`
	Paths     struct {
		Raw       *string `yaml:"raw"`
		Extracted *string `yaml:"extracted"`
		Clean     *string `yaml:"clean"`
		Train     *string `yaml:"train"`
	} `yaml:"paths"`
	RunInterval *time.Duration `yaml:"run_interval"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func parseTime(key, s string) (time.Time, error) {
	ts, ok := csvio.ParseTimestamp(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s: bad timestamp %q", ErrInvalidConfig, key, s)
	}
	return ts, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	setString(&c.Policy, f.Policy)
	if f.Seed != nil {
		c.Seed = *f.Seed
	}
	if f.Threshold != nil {
		c.Threshold = *f.Threshold
	}
	if f.Gap.Start != nil {
		if c.Gap.Start, err = parseTime("gap.start", *f.Gap.Start); err != nil {
			return err
		}
	}
	if f.Gap.End != nil {
		if c.Gap.End, err = parseTime("gap.end", *f.Gap.End); err != nil {
			return err
		}
	}
	if f.Gap.Step != nil {
		c.Gap.Step = *f.Gap.Step
	}
	if f.Gap.SampleRate != nil {
		c.Gap.SampleRate = *f.Gap.SampleRate
	}
	if f.Gap.Disabled {
		c.Gap.Start = time.Time{}
	}
	if len(f.Scenarios) > 0 {
		c.Scenarios = f.Scenarios
	}
	setString(&c.Paths.Raw, f.Paths.Raw)
	setString(&c.Paths.Extracted, f.Paths.Extracted)
	setString(&c.Paths.Clean, f.Paths.Clean)
	setString(&c.Paths.Train, f.Paths.Train)
	if f.RunInterval != nil {
		c.RunInterval = *f.RunInterval
	}
	return nil
}

func split(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ROOMSENSE_POLICY":    &c.Policy,
		"RAW_PATH":            &c.Paths.Raw,
		"EXTRACTED_PATH":      &c.Paths.Extracted,
		"CLEAN_PATH":          &c.Paths.Clean,
		"TRAIN_PATH":          &c.Paths.Train,
		"SCYLLA_KEYSPACE":     &c.ScyllaKeyspace,
		"VALKEY_SERVICE":      &c.ValkeyService,
		"MEMCACHED_ADDR":      &c.MemcachedAddr,
		"KAFKA_TOPIC":         &c.KafkaTopic,
		"KAFKA_SUMMARY_TOPIC": &c.KafkaSummaryTopic,
		"TEMPO_ENDPOINT":      &c.TempoEndpoint,
		"LISTEN_ADDR":         &c.ListenAddr,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_FORMAT":          &c.LogFormat,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	lists := map[string]*[]string{
		"SCYLLA_NODES":  &c.ScyllaNodes,
		"VALKEY_NODES":  &c.ValkeyNodes,
		"KAFKA_BROKERS": &c.KafkaBrokers,
	}
	for key, dst := range lists {
		if v := os.Getenv(key); v != "" {
			*dst = split(v)
		}
	}

	durations := map[string]*time.Duration{
		"GAP_STEP":     &c.Gap.Step,
		"SAMPLE_RATE":  &c.Gap.SampleRate,
		"CACHE_TTL":    &c.CacheTTL,
		"RUN_INTERVAL": &c.RunInterval,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = d
	}

	times := map[string]*time.Time{
		"GAP_START": &c.Gap.Start,
		"GAP_END":   &c.Gap.End,
	}
	for key, dst := range times {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		ts, err := parseTime(key, v)
		if err != nil {
			return err
		}
		*dst = ts
	}

	if v := os.Getenv("ROOMSENSE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: ROOMSENSE_SEED: %v", ErrInvalidConfig, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("MISSING_THRESHOLD"); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: MISSING_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		c.Threshold = th
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := compliance.ByName(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidConfig, c.Threshold)
	}
	if !c.Gap.Start.IsZero() {
		if c.Gap.End.Before(c.Gap.Start) {
			return fmt.Errorf("%w: gap ends before it starts", ErrInvalidConfig)
		}
		if c.Gap.Step <= 0 || c.Gap.SampleRate <= 0 {
			return fmt.Errorf("%w: gap step and sample rate must be positive", ErrInvalidConfig)
		}
	}
	if err := scenario.Validate(c.Scenarios); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load builds the configuration from defaults, the CONFIG_FILE overlay
// and the environment, in that order.
func Load() (Config, error) {
	c := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		GapStart:   c.Gap.Start,
		GapEnd:     c.Gap.End,
		GapStep:    c.Gap.Step,
		SampleRate: c.Gap.SampleRate,
	}
}

// Rand returns the random source for a run. A zero seed is time based.
func (c Config) Rand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
