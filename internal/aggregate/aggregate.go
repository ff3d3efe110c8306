// Package aggregate collapses extracted readings to one row per second and
// resolves the missing values left behind by sparse devices.
package aggregate

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ntentasd/roomsense/pkg/types"
)

const DefaultThreshold = 0.3

// PerSecond floors every timestamp to the second and averages each column
// over the rows of that second, ignoring missing values. Rows without a
// timestamp are discarded. The result is sorted by timestamp.
func PerSecond(t *types.Table) *types.Table {
	type bucket struct {
		values map[string][]float64
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time

	for _, row := range t.Rows {
		if row.Timestamp.IsZero() {
			continue
		}
		sec := row.Timestamp.Truncate(time.Second)
		b, ok := buckets[sec]
		if !ok {
			b = &bucket{values: make(map[string][]float64)}
			buckets[sec] = b
			order = append(order, sec)
		}
		for _, c := range t.Columns {
			if v, ok := row.Get(c); ok {
				b.values[c] = append(b.values[c], v)
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := &types.Table{Columns: append([]string(nil), t.Columns...)}
	for _, sec := range order {
		row := types.NewRow(sec)
		for _, c := range t.Columns {
			vs := buckets[sec].values[c]
			if len(vs) == 0 {
				row.Set(c, math.NaN())
				continue
			}
			row.Set(c, stat.Mean(vs, nil))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// MissingRatio is the share of rows with at least one missing value.
func MissingRatio(t *types.Table) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	missing := 0
	for _, row := range t.Rows {
		if !row.Complete(t.Columns) {
			missing++
		}
	}
	return float64(missing) / float64(len(t.Rows))
}

// Median of the non-missing values, averaging the two middle values for an
// even count. NaN when nothing is left.
func Median(vs []float64) float64 {
	xs := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	sort.Float64s(xs)
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return (xs[mid-1] + xs[mid]) / 2
}

type Result struct {
	Table        *types.Table
	MissingRatio float64
	Decision     types.Decision
	// Dropped counts rows removed by DecisionDrop.
	Dropped int
	// Medians holds the fill value per column for DecisionFillMedian.
	Medians map[string]float64
}

// Clean drops incomplete rows while they stay under threshold, otherwise
// fills every missing value with its column median. The input is not
// modified.
func Clean(t *types.Table, threshold float64) Result {
	res := Result{
		Table:        &types.Table{Columns: append([]string(nil), t.Columns...)},
		MissingRatio: MissingRatio(t),
	}

	if res.MissingRatio < threshold {
		res.Decision = types.DecisionDrop
		for _, row := range t.Rows {
			if !row.Complete(t.Columns) {
				res.Dropped++
				continue
			}
			res.Table.Rows = append(res.Table.Rows, copyRow(row))
		}
		return res
	}

	res.Decision = types.DecisionFillMedian
	res.Medians = make(map[string]float64, len(t.Columns))
	for _, c := range t.Columns {
		vs := make([]float64, 0, len(t.Rows))
		for _, row := range t.Rows {
			if v, ok := row.Get(c); ok {
				vs = append(vs, v)
			}
		}
		res.Medians[c] = Median(vs)
	}
	for _, row := range t.Rows {
		out := copyRow(row)
		for _, c := range t.Columns {
			if _, ok := out.Get(c); !ok {
				out.Set(c, res.Medians[c])
			}
		}
		res.Table.Rows = append(res.Table.Rows, out)
	}
	return res
}

func copyRow(row types.Row) types.Row {
	out := types.NewRow(row.Timestamp)
	for k, v := range row.Values {
		out.Values[k] = v
	}
	return out
}
