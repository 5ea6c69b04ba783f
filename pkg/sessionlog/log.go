// Package sessionlog records the analyses run during a session.
//
// The log is informational: it is never read back by the analyzer and its
// failures never change an analysis result.
package sessionlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hervehildenbrand/saferoute/pkg/models"
)

// Entry is one recorded analysis.
type Entry struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Source            string    `json:"source"`
	Destination       string    `json:"destination"`
	Status            string    `json:"status"`
	RiskCombination   string    `json:"risk_combination,omitempty"`
	PriorityLevel     int       `json:"priority_level"`
	CombinedRiskScore float64   `json:"combined_risk_score"`
	IsRecommended     bool      `json:"is_recommended"`
	Message           string    `json:"message,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// NewEntry builds the log entry for one analysis result.
func NewEntry(sessionID, source, destination string, result models.AnalysisResult, at time.Time) Entry {
	e := Entry{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Source:      source,
		Destination: destination,
		Status:      result.Status,
		RecordedAt:  at,
	}
	if !result.OK() {
		e.Message = result.Message
		return e
	}
	e.RiskCombination = result.RiskAnalysis.RiskCombination
	e.PriorityLevel = result.RiskAnalysis.PriorityLevel
	e.CombinedRiskScore = result.RiskAnalysis.CombinedRiskScore
	e.IsRecommended = result.Recommendation.IsRecommended
	return e
}

// Log is an append-only record of analyses, safe for concurrent use.
type Log interface {
	// Append records an entry.
	Append(ctx context.Context, e Entry) error
	// Entries returns the recorded entries, oldest first.
	Entries(ctx context.Context) ([]Entry, error)
	// Close flushes pending entries and releases resources.
	Close() error
}

// MemoryLog keeps entries in process memory.
// With a capacity > 0 the oldest entries are dropped once it is full.
type MemoryLog struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	dropped  uint64
}

// NewMemoryLog creates an in-memory log. capacity <= 0 means unbounded.
func NewMemoryLog(capacity int) *MemoryLog {
	return &MemoryLog{capacity: capacity}
}

func (l *MemoryLog) Append(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity > 0 && len(l.entries) >= l.capacity {
		// Rebuild instead of reslicing so dropped entries can be collected.
		kept := make([]Entry, l.capacity-1, l.capacity)
		copy(kept, l.entries[len(l.entries)-l.capacity+1:])
		l.dropped += uint64(len(l.entries) - len(kept))
		l.entries = kept
	}
	l.entries = append(l.entries, e)
	return nil
}

func (l *MemoryLog) Entries(context.Context) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// Len returns the number of entries held.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Dropped returns how many entries were evicted by the capacity limit.
func (l *MemoryLog) Dropped() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dropped
}

func (l *MemoryLog) Close() error { return nil }
