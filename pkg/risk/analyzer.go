package risk

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hervehildenbrand/saferoute/pkg/models"
)

// Locations is the read-only view of the location registry used by the analyzer.
type Locations interface {
	// Lookup returns the record with exactly this name.
	Lookup(name string) (models.LocationRecord, bool)
	// Names returns every location name in registry order.
	Names() []string
	// Records returns every record in registry order.
	Records() []models.LocationRecord
}

// Analyzer classifies routes between registry locations.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	locations Locations
	now       func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the clock used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer over the given locations.
func NewAnalyzer(locations Locations, opts ...Option) *Analyzer {
	a := &Analyzer{
		locations: locations,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Locations returns the registry the analyzer reads from.
func (a *Analyzer) Locations() Locations {
	return a.locations
}

// AnalyzeRoute classifies the route from source to destination.
// Unknown names produce an error result, never a Go error.
func (a *Analyzer) AnalyzeRoute(source, destination string) models.AnalysisResult {
	srcInfo, srcOK := a.locations.Lookup(source)
	dstInfo, dstOK := a.locations.Lookup(destination)

	if !srcOK || !dstOK {
		var missing []string
		if !srcOK {
			missing = append(missing, source)
		}
		if !dstOK {
			missing = append(missing, destination)
		}
		return models.AnalysisResult{
			Status:             models.StatusError,
			Message:            fmt.Sprintf("Location(s) not found: %s", strings.Join(missing, ", ")),
			AvailableLocations: a.locations.Names(),
		}
	}

	srcLevel := srcInfo.SafetyLevel.OrDefault()
	dstLevel := dstInfo.SafetyLevel.OrDefault()

	key := CombinationKey(srcLevel, dstLevel)
	priority := Priority(key)

	return models.AnalysisResult{
		Status: models.StatusSuccess,
		Route: &models.Route{
			Source:      source,
			Destination: destination,
		},
		RiskAnalysis: &models.RiskAnalysis{
			SourceSafetyLevel:      srcLevel,
			DestinationSafetyLevel: dstLevel,
			RiskCombination:        key,
			PriorityLevel:          priority,
			RiskDescription:        Describe(priority),
			CombinedRiskScore:      CombinedScore(srcLevel, dstLevel),
		},
		Recommendation: &models.Recommendation{
			IsRecommended: IsRecommended(priority),
			AlertMessage:  alertMessage(priority, source, destination),
			PriorityLevel: priority,
		},
		SourceDetails:      details(srcInfo, srcLevel),
		DestinationDetails: details(dstInfo, dstLevel),
		Timestamp:          a.now().Format(time.RFC3339Nano),
	}
}

// alertMessage returns the blocking alert for priorities 0 and 1.
// Priority 2 is not recommended either but only warrants caution, so it
// gets no alert.
func alertMessage(priority int, source, destination string) *string {
	var msg string
	switch priority {
	case PriorityCritical:
		msg = fmt.Sprintf("CRITICAL ALERT: Route from %s to %s has VERY HIGH risk. NOT RECOMMENDED.", source, destination)
	case PriorityHigh:
		msg = fmt.Sprintf("HIGH ALERT: Route from %s to %s has HIGH risk. NOT RECOMMENDED.", source, destination)
	default:
		return nil
	}
	return &msg
}

func details(rec models.LocationRecord, level models.SafetyLevel) *models.LocationDetails {
	return &models.LocationDetails{
		Name:                 rec.Name,
		SafetyLevel:          level,
		CrimeDensity:         rec.CrimeDensity,
		LightingQuality:      rec.LightingQuality,
		SurveillanceCoverage: rec.SurveillanceCoverage,
		RecentIncidents:      rec.IncidentsLastMonth,
		PoliceStation:        rec.PoliceStation,
		CrowdDensity:         rec.CrowdDensity,
		Latitude:             rec.Latitude,
		Longitude:            rec.Longitude,
	}
}

// SafeAlternatives returns up to MaxAlternatives destinations that are
// recommended from source, best first. Ties keep registry order.
// An unknown source yields no alternatives.
func (a *Analyzer) SafeAlternatives(source, destination string) []models.Alternative {
	srcInfo, ok := a.locations.Lookup(source)
	if !ok {
		return []models.Alternative{}
	}
	srcLevel := srcInfo.SafetyLevel.OrDefault()

	alternatives := []models.Alternative{}
	for _, rec := range a.locations.Records() {
		if rec.Name == source || rec.Name == destination {
			continue
		}

		level := rec.SafetyLevel.OrDefault()
		priority := Priority(CombinationKey(srcLevel, level))
		if !IsRecommended(priority) {
			continue
		}

		alternatives = append(alternatives, models.Alternative{
			Location:             rec.Name,
			SafetyLevel:          level,
			PriorityLevel:        priority,
			RiskDescription:      Describe(priority),
			CrimeDensity:         rec.CrimeDensity,
			SurveillanceCoverage: rec.SurveillanceCoverage,
		})
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].PriorityLevel > alternatives[j].PriorityLevel
	})

	if len(alternatives) > MaxAlternatives {
		alternatives = alternatives[:MaxAlternatives]
	}
	return alternatives
}

// BatchAnalyze analyzes every route in order. Errors do not stop the batch.
func (a *Analyzer) BatchAnalyze(routes []models.Route) []models.AnalysisResult {
	results := make([]models.AnalysisResult, 0, len(routes))
	for _, r := range routes {
		results = append(results, a.AnalyzeRoute(r.Source, r.Destination))
	}
	return results
}

// RiskMatrix classifies every ordered pair of locations, self pairs included.
func (a *Analyzer) RiskMatrix() models.RiskMatrix {
	records := a.locations.Records()
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}

	cells := make([][]models.MatrixCell, len(records))
	for i, src := range records {
		row := make([]models.MatrixCell, len(records))
		for j, dst := range records {
			key := models.SameLocation
			priority := SameLocationPriority
			if i != j {
				key = CombinationKey(src.SafetyLevel.OrDefault(), dst.SafetyLevel.OrDefault())
				priority = Priority(key)
			}
			row[j] = models.MatrixCell{
				RiskCombination: key,
				PriorityLevel:   priority,
				IsRecommended:   IsRecommended(priority),
			}
		}
		cells[i] = row
	}

	return models.RiskMatrix{Locations: names, Cells: cells}
}
