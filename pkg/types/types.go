// Package types
package types

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIdeal        Status = "Ideal"
	StatusOptimalisasi Status = "Optimalisasi"
	StatusPeringatan   Status = "Peringatan"
	StatusKritis       Status = "Kritis"
	StatusBorosEnergi  Status = "Boros Energi"
	StatusInvalid      Status = "Invalid"
)

// Statuses lists every label a classifier can produce, in report order.
var Statuses = []Status{
	StatusKritis,
	StatusPeringatan,
	StatusOptimalisasi,
	StatusIdeal,
	StatusBorosEnergi,
	StatusInvalid,
}

var ErrInvalidStatus = fmt.Errorf("invalid status")

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

const (
	ColTimestamp = "timestamp"
	ColOccupancy = "occupancy"
	ColTemp      = "temp"
	ColHum       = "hum"
	ColLux       = "lux"
	ColNoise     = "noise"
	ColEnergyKWh = "energy_kwh"
	ColStatus    = "status"
	ColPMV       = "pmv"
	ColPPD       = "ppd"
)

// SensorColumns are the measured fields, in extraction order.
var SensorColumns = []string{ColTemp, ColHum, ColLux, ColNoise}

// FeatureColumns are the classifier inputs.
var FeatureColumns = []string{ColOccupancy, ColTemp, ColHum, ColLux, ColNoise}

// TrainColumns is the header of the final training table.
var TrainColumns = []string{
	ColTimestamp, ColOccupancy, ColTemp, ColHum, ColLux, ColNoise,
	ColEnergyKWh, ColStatus, ColPMV, ColPPD,
}

// Reading holds the five classifier inputs of one sample.
type Reading struct {
	Occupancy int     `json:"occupancy"`
	Temp      float64 `json:"temp"`
	Hum       float64 `json:"hum"`
	Lux       float64 `json:"lux"`
	Noise     float64 `json:"noise"`
}

// Verdict is the output of one classification. Status, PMV and PPD are
// never set independently: they come from a compliance policy, or from
// compliance.Unmatched when a reading cannot be classified.
type Verdict struct {
	Status Status  `json:"status"`
	PMV    float64 `json:"pmv"`
	PPD    float64 `json:"ppd"`
}

type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Reading
	EnergyKWh float64 `json:"energy_kwh"`
	Verdict
}

// RawRecord is one device message as delivered by the ingestion export.
type RawRecord struct {
	Timestamp  time.Time
	SensorName string
	Payload    string
}

// Row is one untyped record of a pre-classification table. A value is
// missing when its key is absent or NaN; a zero Timestamp is missing.
type Row struct {
	Timestamp time.Time
	Values    map[string]float64
}

func NewRow(ts time.Time) Row {
	return Row{Timestamp: ts, Values: make(map[string]float64)}
}

func (r Row) Get(col string) (float64, bool) {
	v, ok := r.Values[col]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

func (r Row) Set(col string, v float64) {
	r.Values[col] = v
}

// Complete reports whether every one of cols has a value.
func (r Row) Complete(cols []string) bool {
	for _, c := range cols {
		if _, ok := r.Get(c); !ok {
			return false
		}
	}
	return true
}

type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

type Decision string

const (
	DecisionDrop       Decision = "drop"
	DecisionFillMedian Decision = "fill_median"
)

type LabelCount struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type ColumnStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type Summary struct {
	RunID        uuid.UUID              `json:"run_id"`
	Policy       string                 `json:"policy"`
	CreatedAt    time.Time              `json:"created_at"`
	RawRows      int                    `json:"raw_rows"`
	Malformed    int                    `json:"malformed"`
	CleanRows    int                    `json:"clean_rows"`
	MissingRatio float64                `json:"missing_ratio"`
	Decision     Decision               `json:"decision,omitempty"`
	GapRows      int                    `json:"gap_rows"`
	Invalid      int                    `json:"invalid"`
	Rows         int                    `json:"rows"`
	Distribution map[Status]LabelCount  `json:"distribution"`
	Stats        map[string]ColumnStats `json:"stats"`
}
