package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/pkg/types"
)

var t0 = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func row(ts time.Time, kv map[string]float64) types.Row {
	r := types.NewRow(ts)
	for k, v := range kv {
		r.Set(k, v)
	}
	return r
}

func TestPerSecondMeansWithinSecond(t *testing.T) {
	in := &types.Table{
		Columns: []string{types.ColTemp, types.ColLux},
		Rows: []types.Row{
			row(t0.Add(1500*time.Millisecond), map[string]float64{types.ColTemp: 26}),
			row(t0.Add(200*time.Millisecond), map[string]float64{types.ColTemp: 24, types.ColLux: math.NaN()}),
			row(t0.Add(900*time.Millisecond), map[string]float64{types.ColTemp: 25, types.ColLux: 300}),
			row(time.Time{}, map[string]float64{types.ColTemp: 99}),
		},
	}

	out := PerSecond(in)
	require.Len(t, out.Rows, 2)

	assert.Equal(t, t0, out.Rows[0].Timestamp)
	v, _ := out.Rows[0].Get(types.ColTemp)
	assert.InDelta(t, 24.5, v, 1e-9)
	v, ok := out.Rows[0].Get(types.ColLux)
	assert.True(t, ok)
	assert.Equal(t, 300.0, v)

	assert.Equal(t, t0.Add(time.Second), out.Rows[1].Timestamp)
	_, ok = out.Rows[1].Get(types.ColLux)
	assert.False(t, ok)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 5.0, Median([]float64{math.NaN(), 5}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func table(missing, total int) *types.Table {
	tbl := &types.Table{Columns: []string{types.ColTemp, types.ColHum}}
	for i := 0; i < total; i++ {
		r := row(t0.Add(time.Duration(i)*time.Second), map[string]float64{
			types.ColTemp: float64(20 + i),
			types.ColHum:  float64(50 + i),
		})
		if i < missing {
			r.Set(types.ColHum, math.NaN())
		}
		tbl.Rows = append(tbl.Rows, r)
	}
	return tbl
}

func TestCleanDropsBelowThreshold(t *testing.T) {
	res := Clean(table(2, 10), DefaultThreshold)
	assert.Equal(t, types.DecisionDrop, res.Decision)
	assert.InDelta(t, 0.2, res.MissingRatio, 1e-9)
	assert.Equal(t, 2, res.Dropped)
	require.Len(t, res.Table.Rows, 8)
	for _, r := range res.Table.Rows {
		assert.True(t, r.Complete(res.Table.Columns))
	}
}

func TestCleanFillsMedianAtThreshold(t *testing.T) {
	in := table(3, 10)
	res := Clean(in, DefaultThreshold)
	assert.Equal(t, types.DecisionFillMedian, res.Decision)
	assert.InDelta(t, 0.3, res.MissingRatio, 1e-9)
	require.Len(t, res.Table.Rows, 10)

	// hum present for i = 3..9, values 53..59
	assert.Equal(t, 56.0, res.Medians[types.ColHum])
	v, ok := res.Table.Rows[0].Get(types.ColHum)
	assert.True(t, ok)
	assert.Equal(t, 56.0, v)

	// input untouched
	_, ok = in.Rows[0].Get(types.ColHum)
	assert.False(t, ok)
}

func TestCleanEvenMedian(t *testing.T) {
	res := Clean(table(6, 10), DefaultThreshold)
	require.Equal(t, types.DecisionFillMedian, res.Decision)
	// hum present for i = 6..9, values 56..59
	assert.Equal(t, 57.5, res.Medians[types.ColHum])
}

func TestCleanEmpty(t *testing.T) {
	res := Clean(&types.Table{Columns: []string{types.ColTemp}}, DefaultThreshold)
	assert.Equal(t, types.DecisionDrop, res.Decision)
	assert.Zero(t, res.MissingRatio)
	assert.Empty(t, res.Table.Rows)
}
