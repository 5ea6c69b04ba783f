package models

// Result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SameLocation is the combination tag used for self pairs in the risk matrix.
const SameLocation = "same-location"

// AnalysisResult is the outcome of analysing one route.
// Callers must check Status before reading the analysis fields: an error
// result only carries Message and AvailableLocations.
type AnalysisResult struct {
	Status string `json:"status"`

	// Error fields
	Message            string   `json:"message,omitempty"`
	AvailableLocations []string `json:"available_locations,omitempty"`

	// Success fields
	Route              *Route           `json:"route,omitempty"`
	RiskAnalysis       *RiskAnalysis    `json:"risk_analysis,omitempty"`
	Recommendation     *Recommendation  `json:"recommendation,omitempty"`
	SourceDetails      *LocationDetails `json:"source_details,omitempty"`
	DestinationDetails *LocationDetails `json:"destination_details,omitempty"`
	Timestamp          string           `json:"timestamp,omitempty"`
}

// OK reports whether the analysis succeeded.
func (r AnalysisResult) OK() bool {
	return r.Status == StatusSuccess
}

// Route names the two endpoints of an analysis.
type Route struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
}

// RiskAnalysis holds the classification and the numeric score of a route.
// PriorityLevel and CombinedRiskScore are independent signals and may
// disagree about which of two routes is worse.
type RiskAnalysis struct {
	SourceSafetyLevel      SafetyLevel `json:"source_safety_level"`
	DestinationSafetyLevel SafetyLevel `json:"destination_safety_level"`
	RiskCombination        string      `json:"risk_combination"`
	PriorityLevel          int         `json:"priority_level"`
	RiskDescription        string      `json:"risk_description"`
	CombinedRiskScore      float64     `json:"combined_risk_score"`
}

// Recommendation says whether the route should be taken.
// AlertMessage is only set for priorities 0 and 1.
type Recommendation struct {
	IsRecommended bool    `json:"is_recommended"`
	AlertMessage  *string `json:"alert_message"`
	PriorityLevel int     `json:"priority_level"`
}

// LocationDetails is the attribute snapshot of a route endpoint.
type LocationDetails struct {
	Name                 string       `json:"name"`
	SafetyLevel          SafetyLevel  `json:"safety_level"`
	CrimeDensity         float64      `json:"crime_density"`
	LightingQuality      int          `json:"lighting_quality"`
	SurveillanceCoverage int          `json:"surveillance_coverage"`
	RecentIncidents      int          `json:"recent_incidents"`
	PoliceStation        string       `json:"police_station"`
	CrowdDensity         CrowdDensity `json:"crowd_density,omitempty"`
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
}

// Alternative is a destination that is reasonably safe to reach from a source.
type Alternative struct {
	Location             string      `json:"location"`
	SafetyLevel          SafetyLevel `json:"safety_level"`
	PriorityLevel        int         `json:"priority_level"`
	RiskDescription      string      `json:"risk_description"`
	CrimeDensity         float64     `json:"crime_density"`
	SurveillanceCoverage int         `json:"surveillance_coverage"`
}

// MatrixCell is one source/destination entry of the risk matrix.
type MatrixCell struct {
	RiskCombination string `json:"risk_combination"`
	PriorityLevel   int    `json:"priority_level"`
	IsRecommended   bool   `json:"is_recommended"`
}

// RiskMatrix holds the priority of every ordered location pair.
// Locations gives the row and column order; Cells is indexed the same way.
type RiskMatrix struct {
	Locations []string       `json:"locations"`
	Cells     [][]MatrixCell `json:"-"`
}

// Cell returns the entry for the given source and destination names.
func (m RiskMatrix) Cell(source, destination string) (MatrixCell, bool) {
	i, j := m.index(source), m.index(destination)
	if i < 0 || j < 0 {
		return MatrixCell{}, false
	}
	return m.Cells[i][j], true
}

// Map returns the matrix as nested maps keyed by source then destination.
func (m RiskMatrix) Map() map[string]map[string]MatrixCell {
	out := make(map[string]map[string]MatrixCell, len(m.Locations))
	for i, src := range m.Locations {
		row := make(map[string]MatrixCell, len(m.Locations))
		for j, dst := range m.Locations {
			row[dst] = m.Cells[i][j]
		}
		out[src] = row
	}
	return out
}

func (m RiskMatrix) index(name string) int {
	for i, n := range m.Locations {
		if n == name {
			return i
		}
	}
	return -1
}
