package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/pkg/types"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 12, 1, 10, 0, 5, 0, time.UTC)
	for _, s := range []string{
		"2025-12-01 10:00:05",
		"2025-12-01T10:00:05Z",
		"2025-12-01T10:00:05",
		"2025-12-01 10:00:05+00:00",
	} {
		ts, ok := ParseTimestamp(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(ts), s)
	}

	ts, ok := ParseTimestamp("2025-12-01 10:00:05.250")
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, ts.Sub(want))

	for _, s := range []string{"", "yesterday", "2025-13-01 10:00:00"} {
		ts, ok := ParseTimestamp(s)
		assert.False(t, ok, s)
		assert.True(t, ts.IsZero(), s)
	}
}

func TestTimestampRoundTripKeepsOffsetInstant(t *testing.T) {
	in, ok := ParseTimestamp("2025-12-20 10:00:00+07:00")
	require.True(t, ok)
	assert.Equal(t, time.UTC, in.Location())
	assert.Equal(t, time.Date(2025, 12, 20, 3, 0, 0, 0, time.UTC), in)

	written := FormatTimestamp(in)
	assert.Equal(t, "2025-12-20 03:00:00", written)
	back, ok := ParseTimestamp(written)
	require.True(t, ok)
	assert.Equal(t, in, back)

	wib := time.Date(2025, 12, 20, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "2025-12-20 03:00:00", FormatTimestamp(wib))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2025-12-01 10:00:05", FormatTimestamp(time.Date(2025, 12, 1, 10, 0, 5, 0, time.UTC)))
	assert.Equal(t, "2025-12-01 10:00:05.5", FormatTimestamp(time.Date(2025, 12, 1, 10, 0, 5, 5e8, time.UTC)))
	assert.Equal(t, "", FormatTimestamp(time.Time{}))
}

func TestReadRaw(t *testing.T) {
	in := `timestamp,sensor_name,payload
2025-12-01 10:00:00,hvac,"{'temp': 24.5, 'hum': 55}"
garbage,lux-meter,"{'light_level': 300}"
`
	recs, err := ReadRaw(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "hvac", recs[0].SensorName)
	assert.Equal(t, `{'temp': 24.5, 'hum': 55}`, recs[0].Payload)
	assert.False(t, recs[0].Timestamp.IsZero())
	assert.True(t, recs[1].Timestamp.IsZero())
}

func TestReadRawMissingHeader(t *testing.T) {
	_, err := ReadRaw(strings.NewReader("timestamp,payload\n"))
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = ReadRaw(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestTableRoundTrip(t *testing.T) {
	ts := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	in := `timestamp,temp,hum,noise,lux
2025-12-01 10:00:00,24.5,,40,n/a
`
	tbl, err := ReadTable(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "hum", "noise", "lux"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, ts, tbl.Rows[0].Timestamp)

	v, ok := tbl.Rows[0].Get(types.ColTemp)
	assert.True(t, ok)
	assert.Equal(t, 24.5, v)
	_, ok = tbl.Rows[0].Get(types.ColHum)
	assert.False(t, ok)
	_, ok = tbl.Rows[0].Get(types.ColLux)
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))
	assert.Equal(t, "timestamp,temp,hum,noise,lux\n2025-12-01 10:00:00,24.5,,40,\n", buf.String())
}

func TestSamplesRoundTrip(t *testing.T) {
	samples := []types.Sample{
		{
			Timestamp: time.Date(2025, 12, 24, 0, 0, 1, 0, time.UTC),
			Reading:   types.Reading{Occupancy: 70, Temp: 29.5, Hum: 80, Lux: 700, Noise: 65},
			EnergyKWh: 0.25,
			Verdict:   types.Verdict{Status: types.StatusKritis, PMV: 2, PPD: 90},
		},
		{
			Timestamp: time.Date(2025, 12, 24, 0, 0, 2, 0, time.UTC),
			Reading:   types.Reading{Occupancy: 0, Temp: 19.2, Hum: 50, Lux: 450, Noise: 40},
			EnergyKWh: 0.84,
			Verdict:   types.Verdict{Status: types.StatusBorosEnergi, PMV: 0, PPD: 5},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSamples(&buf, samples))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,occupancy,temp,hum,lux,noise,energy_kwh,status,pmv,ppd", lines[0])
	assert.Equal(t, "2025-12-24 00:00:02,0,19.2,50,450,40,0.84,Boros Energi,0,5", lines[2])

	got, err := ReadSamples(&buf)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestReadSamplesRejectsUnknownStatus(t *testing.T) {
	in := "timestamp,occupancy,temp,hum,lux,noise,energy_kwh,status,pmv,ppd\n" +
		"2025-12-24 00:00:02,0,19.2,50,450,40,0.84,Nyaman,0,5\n"
	_, err := ReadSamples(strings.NewReader(in))
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}
