package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/scenario"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, compliance.PolicyGapAware, c.Policy)
	assert.Equal(t, 0.3, c.Threshold)
	assert.Equal(t, 5*time.Minute, c.Gap.Step)
	assert.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), c.Gap.Start)
	assert.Equal(t, "train_data.csv", c.Paths.Train)
	assert.Len(t, c.Scenarios, 5)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("ROOMSENSE_POLICY", "strict")
	t.Setenv("ROOMSENSE_SEED", "7")
	t.Setenv("MISSING_THRESHOLD", "0.5")
	t.Setenv("SCYLLA_NODES", "10.0.0.1, 10.0.0.2")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")
	t.Setenv("GAP_START", "2025-12-01 00:00:00")
	t.Setenv("GAP_END", "2025-12-01T06:00:00Z")
	t.Setenv("RUN_INTERVAL", "1m")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, compliance.PolicyStrict, c.Policy)
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 0.5, c.Threshold)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, c.ScyllaNodes)
	assert.Equal(t, []string{"kafka:9092"}, c.KafkaBrokers)
	assert.Equal(t, 6*time.Hour, c.Gap.End.Sub(c.Gap.Start))
	assert.Equal(t, time.Minute, c.RunInterval)

	opts := c.PipelineOptions()
	assert.Equal(t, c.Gap.Start, opts.GapStart)
	assert.Equal(t, c.Gap.SampleRate, opts.SampleRate)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"ROOMSENSE_POLICY":  "lenient",
		"MISSING_THRESHOLD": "1.5",
		"GAP_STEP":          "often",
		"GAP_END":           "2025-12-01 00:00:00",
		"ROOMSENSE_SEED":    "abc",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomsense.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy: strict
threshold: 0.25
gap:
  start: "2025-12-24 00:00:00"
  end: "2025-12-24 01:00:00"
  step: 10m
paths:
  train: out/train.csv
scenarios:
  - name: warm
    weight: 1
    occupancy: {min: 19, max: 25}
    temp: {min: 25, max: 26.5}
    hum: {min: 52, max: 68}
    lux: {min: 300, max: 390}
    noise: {min: 42, max: 58}
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MISSING_THRESHOLD", "0.4")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, compliance.PolicyStrict, c.Policy)
	// environment wins over the file
	assert.Equal(t, 0.4, c.Threshold)
	assert.Equal(t, 10*time.Minute, c.Gap.Step)
	assert.Equal(t, time.Hour, c.Gap.End.Sub(c.Gap.Start))
	assert.Equal(t, "out/train.csv", c.Paths.Train)
	assert.Equal(t, "raw_data.csv", c.Paths.Raw)
	require.Len(t, c.Scenarios, 1)
	assert.Equal(t, scenario.Range{Min: 25, Max: 26.5}, c.Scenarios[0].Temp)
}

func TestLoadFileDisablesGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomsense.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gap:\n  disabled: true\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	c, err := Load()
	require.NoError(t, err)
	assert.True(t, c.Gap.Start.IsZero())
}

func TestRandIsSeeded(t *testing.T) {
	c := Default()
	c.Seed = 3
	assert.Equal(t, c.Rand().Int63(), c.Rand().Int63())
}
