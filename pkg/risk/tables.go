// Package risk provides route risk classification over a location registry.
package risk

import (
	"math"

	"github.com/hervehildenbrand/saferoute/pkg/models"
)

// Priority levels. 0 is the most dangerous combination, 5 the safest.
const (
	PriorityCritical   = 0
	PriorityHigh       = 1
	PriorityModerate   = 2
	PriorityAcceptable = 3
	PriorityGood       = 4
	PriorityExcellent  = 5
)

// DefaultPriority is used for a combination missing from the table.
const DefaultPriority = PriorityAcceptable

// RecommendThreshold is the lowest priority that is still recommended.
const RecommendThreshold = PriorityAcceptable

// SameLocationPriority is the sentinel priority of a self pair in the matrix.
const SameLocationPriority = PriorityExcellent

// MaxAlternatives caps the number of safe alternatives returned.
const MaxAlternatives = 5

// CombinationPriority maps a "source-destination" safety level key to its priority.
// The table is asymmetric: "high-mid" and "mid-high" differ.
var CombinationPriority = map[string]int{
	"high-high": PriorityCritical,
	"high-mid":  PriorityHigh,
	"high-low":  PriorityHigh,
	"mid-high":  PriorityModerate,
	"mid-mid":   PriorityAcceptable,
	"mid-low":   PriorityGood,
	"low-high":  PriorityModerate,
	"low-mid":   PriorityGood,
	"low-low":   PriorityExcellent,
}

// PriorityDescriptions maps a priority to its display label.
var PriorityDescriptions = map[int]string{
	PriorityCritical:   "CRITICAL - Do Not Recommend",
	PriorityHigh:       "HIGH RISK - Not Recommended",
	PriorityModerate:   "MODERATE RISK - Be Cautious",
	PriorityAcceptable: "ACCEPTABLE RISK - Recommended",
	PriorityGood:       "GOOD SAFETY - Highly Recommended",
	PriorityExcellent:  "EXCELLENT - Very Safe Route",
}

// UnknownDescription labels a priority outside the display table.
const UnknownDescription = "Unknown Risk"

// SafetyRiskScores is the per-endpoint contribution to the combined risk score.
var SafetyRiskScores = map[models.SafetyLevel]int{
	models.SafetyHigh: 0,
	models.SafetyMid:  1,
	models.SafetyLow:  2,
}

const (
	scoreWeight = 33
	scoreSpan   = 66
)

// CombinationKey builds the ordered table key for two safety levels.
func CombinationKey(source, destination models.SafetyLevel) string {
	return string(source) + "-" + string(destination)
}

// Priority returns the table priority of a combination key, or DefaultPriority.
func Priority(key string) int {
	if p, ok := CombinationPriority[key]; ok {
		return p
	}
	return DefaultPriority
}

// Describe returns the display label of a priority.
func Describe(priority int) string {
	if d, ok := PriorityDescriptions[priority]; ok {
		return d
	}
	return UnknownDescription
}

// IsRecommended checks if a priority is good enough to recommend the route.
func IsRecommended(priority int) bool {
	return priority >= RecommendThreshold
}

// RiskScore returns the score contribution of a safety level (1 if unknown).
func RiskScore(level models.SafetyLevel) int {
	if s, ok := SafetyRiskScores[level]; ok {
		return s
	}
	return 1
}

// CombinedScore computes the 0-100 risk score of a route, rounded to 2 decimals.
// both high -> 0, both mid -> 50, both low -> 100.
func CombinedScore(source, destination models.SafetyLevel) float64 {
	src := float64(RiskScore(source) * scoreWeight)
	dst := float64(RiskScore(destination) * scoreWeight)
	combined := ((src + dst) / 2) / scoreSpan * 100
	combined = math.Min(100, math.Max(0, combined))
	return math.Round(combined*100) / 100
}
