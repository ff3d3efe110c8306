package db

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"

	"github.com/ntentasd/roomsense/internal/metrics"
	"github.com/ntentasd/roomsense/pkg/types"
)

// batchSize bounds the statements of one unlogged batch.
const batchSize = 100

func bucketDate(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// buckets lists every bucket_date touched by [from, to].
func buckets(from, to time.Time) []time.Time {
	var out []time.Time
	end := bucketDate(to)
	for date := bucketDate(from); !date.After(end); date = date.AddDate(0, 0, 1) {
		out = append(out, date)
	}
	return out
}

// toDec stores energy with the two decimals it is rounded to.
func toDec(v float64) *inf.Dec {
	return inf.NewDec(int64(math.Round(v*100)), 2)
}

func fromDec(d *inf.Dec) float64 {
	if d == nil {
		return 0
	}
	v, _ := strconv.ParseFloat(d.String(), 64)
	return v
}

const insertSample = `
INSERT INTO samples (run_id, bucket_date, timestamp, seq, occupancy, temp, hum, lux, noise, energy_kwh, status, pmv, ppd)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// seqSample is a sample with its position in the run. A real row and a
// gap row can share a second, so the position is part of the key.
type seqSample struct {
	seq int
	types.Sample
}

type partition struct {
	bucket  time.Time
	samples []seqSample
}

// partitionSamples groups samples by bucket_date in first-seen order.
func partitionSamples(samples []types.Sample) []partition {
	index := make(map[time.Time]int)
	var parts []partition
	for i, s := range samples {
		b := bucketDate(s.Timestamp)
		n, ok := index[b]
		if !ok {
			n = len(parts)
			index[b] = n
			parts = append(parts, partition{bucket: b})
		}
		parts[n].samples = append(parts[n].samples, seqSample{seq: i, Sample: s})
	}
	return parts
}

// SaveSamples writes samples in unlogged batches grouped by partition.
func (db *DB) SaveSamples(ctx context.Context, runID uuid.UUID, samples []types.Sample) error {
	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("save_samples").Observe(time.Since(start).Seconds())
	}()

	for _, part := range partitionSamples(samples) {
		for i := 0; i < len(part.samples); i += batchSize {
			chunk := part.samples[i:min(i+batchSize, len(part.samples))]

			bctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			batch := db.sess.NewBatch(gocql.UnloggedBatch).WithContext(bctx)
			for _, s := range chunk {
				batch.Query(insertSample,
					gocql.UUID(runID), part.bucket, s.Timestamp, s.seq,
					s.Occupancy, s.Temp, s.Hum, s.Lux, s.Noise,
					toDec(s.EnergyKWh), string(s.Status), s.PMV, s.PPD,
				)
			}
			err := db.sess.ExecuteBatch(batch)
			cancel()
			if err != nil {
				return fmt.Errorf("failed to write bucket %s: %w", part.bucket.Format(time.DateOnly), err)
			}
		}
	}
	return nil
}

// GetSamples returns the samples of one run between two timestamps,
// possibly spanning multiple bucket_dates.
func (db *DB) GetSamples(ctx context.Context, runID uuid.UUID, from, to time.Time) ([]types.Sample, error) {
	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("get_samples").Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out := make([]types.Sample, 0, 256)
	for _, bucket := range buckets(from, to) {
		iter := db.sess.Query(`
SELECT timestamp, occupancy, temp, hum, lux, noise, energy_kwh, status, pmv, ppd
FROM samples
WHERE run_id = ? AND bucket_date = ? AND timestamp >= ? AND timestamp <= ?
`, gocql.UUID(runID), bucket, from, to).WithContext(ctx).Iter()

		var (
			s      types.Sample
			dec    *inf.Dec
			status string
		)
		for iter.Scan(&s.Timestamp, &s.Occupancy, &s.Temp, &s.Hum, &s.Lux, &s.Noise, &dec, &status, &s.PMV, &s.PPD) {
			s.EnergyKWh = fromDec(dec)
			s.Status = types.Status(status)
			out = append(out, s)
		}

		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to query bucket %s: %w", bucket.Format(time.DateOnly), err)
		}
	}
	return out, nil
}
