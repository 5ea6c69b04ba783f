// Package models defines data structures for locations and route analyses.
package models

// SafetyLevel is the coarse three-tier safety classification of a location.
type SafetyLevel string

// Safety levels
const (
	SafetyLow  SafetyLevel = "low"
	SafetyMid  SafetyLevel = "mid"
	SafetyHigh SafetyLevel = "high"
)

// DefaultSafetyLevel is used when a record carries no safety level.
const DefaultSafetyLevel = SafetyMid

// Valid reports whether l is one of the three known levels.
func (l SafetyLevel) Valid() bool {
	switch l {
	case SafetyLow, SafetyMid, SafetyHigh:
		return true
	}
	return false
}

// OrDefault returns l, or DefaultSafetyLevel when l is empty.
func (l SafetyLevel) OrDefault() SafetyLevel {
	if l == "" {
		return DefaultSafetyLevel
	}
	return l
}

// CrowdDensity describes how busy a location usually is.
type CrowdDensity string

// Crowd densities
const (
	CrowdLow    CrowdDensity = "low"
	CrowdMedium CrowdDensity = "medium"
	CrowdHigh   CrowdDensity = "high"
)

// LocationRecord holds the safety attributes of a named location.
type LocationRecord struct {
	Name                 string       `json:"name" yaml:"name" validate:"required"`
	SafetyLevel          SafetyLevel  `json:"safety_level" yaml:"safety_level" validate:"omitempty,oneof=low mid high"`
	CrimeDensity         float64      `json:"crime_density" yaml:"crime_density" validate:"gte=0"`
	LightingQuality      int          `json:"lighting_quality" yaml:"lighting_quality" validate:"gte=0,lte=100"`
	SurveillanceCoverage int          `json:"surveillance_coverage" yaml:"surveillance_coverage" validate:"gte=0,lte=100"`
	CrowdDensity         CrowdDensity `json:"crowd_density" yaml:"crowd_density" validate:"omitempty,oneof=low medium high"`
	IncidentsLastMonth   int          `json:"incidents_last_month" yaml:"incidents_last_month" validate:"gte=0"`
	PoliceStation        string       `json:"police_station" yaml:"police_station"`
	Latitude             float64      `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude            float64      `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// LocationSummary is the short listing of every known location.
type LocationSummary struct {
	Total     int                `json:"total"`
	Locations []LocationOverview `json:"locations"`
}

// LocationOverview is one row of a LocationSummary.
type LocationOverview struct {
	Name               string      `json:"name"`
	SafetyLevel        SafetyLevel `json:"safety_level"`
	CrimeDensity       float64     `json:"crime_density"`
	IncidentsLastMonth int         `json:"incidents_last_month"`
}
