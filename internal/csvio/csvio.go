// Package csvio reads and writes the CSV files exchanged between stages.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ntentasd/roomsense/pkg/types"
)

const (
	ColSensorName = "sensor_name"
	ColPayload    = "payload"
)

const TimestampLayout = "2006-01-02 15:04:05.999999999"

var ErrMissingHeader = errors.New("missing header column")

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses the timestamp formats seen in exports and returns
// the instant in UTC, since stage files are written without a zone. The
// zero time is returned when nothing matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp writes ts in UTC.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(TimestampLayout)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrMissingHeader)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(head))
	for i, name := range head {
		h[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, col)
		}
	}
	return h, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// ReadRaw reads a raw ingestion export with timestamp, sensor_name and
// payload columns.
func ReadRaw(r io.Reader) ([]types.RawRecord, error) {
	cr := newReader(r)
	h, err := readHeader(cr, types.ColTimestamp, ColSensorName, ColPayload)
	if err != nil {
		return nil, err
	}

	var out []types.RawRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read raw record: %w", err)
		}
		ts, _ := ParseTimestamp(field(rec, h[types.ColTimestamp]))
		out = append(out, types.RawRecord{
			Timestamp:  ts,
			SensorName: strings.TrimSpace(field(rec, h[ColSensorName])),
			Payload:    field(rec, h[ColPayload]),
		})
	}
	return out, nil
}

// ReadTable reads a timestamped numeric table. Every column other than
// timestamp is parsed as a float; empty or unparsable cells are missing.
func ReadTable(r io.Reader) (*types.Table, error) {
	cr := newReader(r)
	h, err := readHeader(cr, types.ColTimestamp)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, i := range h {
		width = max(width, i+1)
	}
	cols := make([]string, width)
	for name, i := range h {
		cols[i] = name
	}
	t := &types.Table{}
	for _, c := range cols {
		if c != "" && c != types.ColTimestamp {
			t.Columns = append(t.Columns, c)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table record: %w", err)
		}
		ts, _ := ParseTimestamp(field(rec, h[types.ColTimestamp]))
		row := types.NewRow(ts)
		for _, c := range t.Columns {
			row.Set(c, parseFloat(field(rec, h[c])))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func WriteTable(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{types.ColTimestamp}, t.Columns...)); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns)+1)
	for _, row := range t.Rows {
		rec[0] = FormatTimestamp(row.Timestamp)
		for i, c := range t.Columns {
			v, _ := row.Get(c)
			rec[i+1] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamples writes the labeled training table.
func WriteSamples(w io.Writer, samples []types.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.TrainColumns); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write([]string{
			FormatTimestamp(s.Timestamp),
			strconv.Itoa(s.Occupancy),
			formatFloat(s.Temp),
			formatFloat(s.Hum),
			formatFloat(s.Lux),
			formatFloat(s.Noise),
			formatFloat(s.EnergyKWh),
			string(s.Status),
			formatFloat(s.PMV),
			formatFloat(s.PPD),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSamples reads a training table written by WriteSamples.
func ReadSamples(r io.Reader) ([]types.Sample, error) {
	cr := newReader(r)
	h, err := readHeader(cr, types.TrainColumns...)
	if err != nil {
		return nil, err
	}

	var out []types.Sample
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sample: %w", err)
		}
		line++

		status, err := types.ParseStatus(strings.TrimSpace(field(rec, h[types.ColStatus])))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, _ := ParseTimestamp(field(rec, h[types.ColTimestamp]))
		occ := parseFloat(field(rec, h[types.ColOccupancy]))
		if math.IsNaN(occ) {
			return nil, fmt.Errorf("line %d: missing occupancy", line)
		}

		out = append(out, types.Sample{
			Timestamp: ts,
			Reading: types.Reading{
				Occupancy: int(math.Round(occ)),
				Temp:      parseFloat(field(rec, h[types.ColTemp])),
				Hum:       parseFloat(field(rec, h[types.ColHum])),
				Lux:       parseFloat(field(rec, h[types.ColLux])),
				Noise:     parseFloat(field(rec, h[types.ColNoise])),
			},
			EnergyKWh: parseFloat(field(rec, h[types.ColEnergyKWh])),
			Verdict: types.Verdict{
				Status: status,
				PMV:    parseFloat(field(rec, h[types.ColPMV])),
				PPD:    parseFloat(field(rec, h[types.ColPPD])),
			},
		})
	}
	return out, nil
}
