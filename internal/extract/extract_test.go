package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/pkg/types"
)

func TestPayloadHVAC(t *testing.T) {
	got, err := Payload(SensorHVAC, `{'temp': 24.5, 'hum': 55, 'noise': '41.2'}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		types.ColTemp:  24.5,
		types.ColHum:   55,
		types.ColNoise: 41.2,
	}, got)
}

func TestPayloadLuxMeterRenamesLightLevel(t *testing.T) {
	got, err := Payload(SensorLuxMeter, `{'light_level': 320}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{types.ColLux: 320}, got)
}

func TestPayloadMissingKeyIsNaN(t *testing.T) {
	got, err := Payload(SensorHVAC, `{'temp': 24.5}`)
	require.NoError(t, err)
	assert.Equal(t, 24.5, got[types.ColTemp])
	assert.NaN(t, got[types.ColHum])
	assert.NaN(t, got[types.ColNoise])
}

func TestPayloadMalformed(t *testing.T) {
	_, err := Payload(SensorHVAC, `{'temp': 24.5`)
	var perr *PayloadError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, SensorHVAC, perr.Sensor)

	_, err = Payload(SensorHVAC, `{'temp': 'warm'}`)
	require.ErrorAs(t, err, &perr)
}

func TestPayloadNonFiniteValuesAreMissing(t *testing.T) {
	got, err := Payload(SensorHVAC, `{'temp': NaN, 'hum': 50, 'noise': Infinity}`)
	require.NoError(t, err)
	assert.NaN(t, got[types.ColTemp])
	assert.Equal(t, 50.0, got[types.ColHum])
	assert.NaN(t, got[types.ColNoise])

	got, err = Payload(SensorHVAC, `{'temp':NaN,'hum':-Infinity,'noise':NaN}`)
	require.NoError(t, err)
	assert.NaN(t, got[types.ColTemp])
	assert.NaN(t, got[types.ColHum])
	assert.NaN(t, got[types.ColNoise])

	got, err = Payload(SensorLuxMeter, `{'light_level': null}`)
	require.NoError(t, err)
	assert.NaN(t, got[types.ColLux])
}

func TestPayloadUnknownSensor(t *testing.T) {
	got, err := Payload("door", `{'open': true}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecords(t *testing.T) {
	t0 := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	raw := []types.RawRecord{
		{Timestamp: t0.Add(2 * time.Second), SensorName: SensorLuxMeter, Payload: `{'light_level': 300}`},
		{Timestamp: time.Time{}, SensorName: SensorHVAC, Payload: `{'temp': 22}`},
		{Timestamp: t0, SensorName: SensorHVAC, Payload: `{'temp': 24.5, 'hum': 55, 'noise': 40}`},
		{Timestamp: t0.Add(time.Second), SensorName: SensorHVAC, Payload: `not json`},
		{Timestamp: t0.Add(3 * time.Second), SensorName: "door", Payload: `{}`},
	}

	tbl, stats := Records(raw)
	assert.Equal(t, Stats{Rows: 5, Malformed: 1, Unknown: 1}, stats)
	assert.Equal(t, Columns, tbl.Columns)
	require.Len(t, tbl.Rows, 5)

	assert.Equal(t, t0, tbl.Rows[0].Timestamp)
	temp, ok := tbl.Rows[0].Get(types.ColTemp)
	assert.True(t, ok)
	assert.Equal(t, 24.5, temp)

	// malformed payload keeps its row with no values
	assert.Equal(t, t0.Add(time.Second), tbl.Rows[1].Timestamp)
	assert.Empty(t, tbl.Rows[1].Values)

	lux, ok := tbl.Rows[2].Get(types.ColLux)
	assert.True(t, ok)
	assert.Equal(t, 300.0, lux)
	_, ok = tbl.Rows[2].Get(types.ColTemp)
	assert.False(t, ok)

	// missing timestamps sort last
	assert.True(t, tbl.Rows[4].Timestamp.IsZero())
}
