// Package extract turns raw device payloads into sensor columns.
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ntentasd/roomsense/pkg/types"
)

const (
	SensorHVAC     = "hvac"
	SensorLuxMeter = "lux-meter"
)

// Columns is the column order of an extracted table.
var Columns = []string{types.ColTemp, types.ColHum, types.ColNoise, types.ColLux}

// payloadFields maps payload keys to columns per sensor kind.
var payloadFields = map[string]map[string]string{
	SensorHVAC: {
		"temp":  types.ColTemp,
		"hum":   types.ColHum,
		"noise": types.ColNoise,
	},
	SensorLuxMeter: {
		"light_level": types.ColLux,
	},
}

type Stats struct {
	Rows      int
	Malformed int
	Unknown   int
}

// PayloadError reports a payload that could not be decoded.
type PayloadError struct {
	Sensor string
	Err    error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Sensor, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// nonFinite matches bare NaN and Infinity value tokens, which devices emit
// but JSON does not allow.
var nonFinite = regexp.MustCompile(`([:\[,]\s*)(?:NaN|-?Infinity)(\s*[,}\]])`)

// normalize turns device pseudo JSON into JSON: single quotes become
// double quotes and non-finite values become null.
func normalize(payload string) string {
	s := strings.ReplaceAll(payload, "'", `"`)
	// twice, so adjacent tokens sharing a comma are both replaced
	for i := 0; i < 2; i++ {
		s = nonFinite.ReplaceAllString(s, "${1}null${2}")
	}
	return s
}

// Payload decodes one payload for the given sensor kind. Devices emit
// single-quoted pseudo JSON, so quotes are normalized first. Keys absent
// from the payload, null values and non-finite values come back as NaN.
func Payload(sensor, payload string) (map[string]float64, error) {
	fields, ok := payloadFields[sensor]
	if !ok {
		return map[string]float64{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(normalize(payload)), &data); err != nil {
		return nil, &PayloadError{Sensor: sensor, Err: err}
	}

	out := make(map[string]float64, len(fields))
	for key, col := range fields {
		raw, ok := data[key]
		if !ok || raw == nil {
			out[col] = math.NaN()
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, &PayloadError{Sensor: sensor, Err: fmt.Errorf("%s: %w", key, err)}
		}
		out[col] = v
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value %T", v)
	}
}

// Records extracts every raw record into one row. A malformed payload or
// an unknown sensor yields a row with no values rather than an error, so
// the gap is handled by the missing-value policy downstream. Rows are
// returned in timestamp order with missing timestamps last.
func Records(raw []types.RawRecord) (*types.Table, Stats) {
	t := &types.Table{Columns: append([]string(nil), Columns...)}
	stats := Stats{Rows: len(raw)}

	for _, rec := range raw {
		row := types.NewRow(rec.Timestamp)
		if _, known := payloadFields[rec.SensorName]; !known {
			stats.Unknown++
		}
		values, err := Payload(rec.SensorName, rec.Payload)
		if err != nil {
			stats.Malformed++
		}
		for col, v := range values {
			row.Set(col, v)
		}
		t.Rows = append(t.Rows, row)
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i].Timestamp, t.Rows[j].Timestamp
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
	return t, stats
}
