// Package models contains data structures used throughout the application
package models

import "time"

// mgdlPerMmol converts between mg/dL and mmol/L
const mgdlPerMmol = 18.0182

// GlucoseFloor is the lowest value the engine will ever report (mg/dL)
const GlucoseFloor = 70.0

// Accepted range for manually recorded readings (mg/dL)
const (
	MinReadingMgDL = 50.0
	MaxReadingMgDL = 400.0
)

// DefaultTargetGlucose is used when a profile carries no target (mg/dL)
const DefaultTargetGlucose = 110.0

// RiskBand is one of six ordered glucose ranges
type RiskBand string

const (
	BandSevereLow    RiskBand = "severe_low"    // < 70
	BandMildLow      RiskBand = "mild_low"      // 70-80
	BandNormal       RiskBand = "normal"        // 80-140
	BandMildHigh     RiskBand = "mild_high"     // 140-180
	BandModerateHigh RiskBand = "moderate_high" // 180-250
	BandSevereHigh   RiskBand = "severe_high"   // >= 250
)

// RiskBands lists all bands from lowest to highest
var RiskBands = []RiskBand{
	BandSevereLow,
	BandMildLow,
	BandNormal,
	BandMildHigh,
	BandModerateHigh,
	BandSevereHigh,
}

// Severity returns the distance of a band from normal (0) with sign for direction
func (b RiskBand) Severity() int {
	switch b {
	case BandSevereLow:
		return -2
	case BandMildLow:
		return -1
	case BandMildHigh:
		return 1
	case BandModerateHigh:
		return 2
	case BandSevereHigh:
		return 3
	default:
		return 0
	}
}

// ReadingSource tells where a glucose reading came from
type ReadingSource string

const (
	SourceManual     ReadingSource = "manual"
	SourceAutomatic  ReadingSource = "automatic"
	SourceNightscout ReadingSource = "nightscout"
)

// GlucoseReading is a single recorded glucose measurement
type GlucoseReading struct {
	ID     string        `json:"id"`
	Value  float64       `json:"value"` // mg/dL
	Time   time.Time     `json:"time"`
	Source ReadingSource `json:"source"`
}

// TrendDirection is the short-term direction of recorded readings
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// GlucoseEntry represents a single glucose reading from Nightscout
type GlucoseEntry struct {
	ID        string `json:"_id"`
	SGV       int    `json:"sgv"`  // Sensor glucose value in mg/dL
	Date      int64  `json:"date"` // Unix timestamp in milliseconds
	DateStr   string `json:"dateString"`
	Trend     int    `json:"trend"`     // Trend direction (1-7)
	Direction string `json:"direction"` // Trend direction as string
	Device    string `json:"device"`
	Type      string `json:"type"`
}

// Time returns the time of the glucose entry
func (g *GlucoseEntry) Time() time.Time {
	return time.UnixMilli(g.Date)
}

// ValueMgDL returns the glucose value in mg/dL
func (g *GlucoseEntry) ValueMgDL() int {
	return g.SGV
}

// Reading converts the Nightscout entry into a recorded reading
func (g *GlucoseEntry) Reading() GlucoseReading {
	return GlucoseReading{
		ID:     g.ID,
		Value:  float64(g.ValueMgDL()),
		Time:   g.Time(),
		Source: SourceNightscout,
	}
}

// ServerStatus represents the Nightscout server status
type ServerStatus struct {
	Status     string `json:"status"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	ServerTime string `json:"serverTime"`
	APIEnabled bool   `json:"apiEnabled"`
}

// ToMmol converts a mg/dL value to mmol/L
func ToMmol(mgdl float64) float64 {
	return mgdl / mgdlPerMmol
}

// ToMgdl converts a mmol/L value to mg/dL
func ToMgdl(mmol float64) float64 {
	return mmol * mgdlPerMmol
}
