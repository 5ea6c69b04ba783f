package risk

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
)

// Observer is notified of every analysis a Session records.
type Observer interface {
	Observe(e sessionlog.Entry, result models.AnalysisResult)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e sessionlog.Entry, result models.AnalysisResult)

func (f ObserverFunc) Observe(e sessionlog.Entry, result models.AnalysisResult) { f(e, result) }

// Session runs analyses on behalf of one client session and records them.
// It is passed explicitly to whatever serves the session; there is no
// package-level session state.
type Session struct {
	id        string
	analyzer  *Analyzer
	log       sessionlog.Log
	observers []Observer
	logger    *slog.Logger
}

// NewSession creates a session with a fresh id. A nil log records into memory.
func NewSession(analyzer *Analyzer, log sessionlog.Log, observers ...Observer) *Session {
	return NewSessionWithID(uuid.NewString(), analyzer, log, observers...)
}

// NewSessionWithID creates a session with a caller-chosen id, e.g. to join
// a session log shared through Redis.
func NewSessionWithID(id string, analyzer *Analyzer, log sessionlog.Log, observers ...Observer) *Session {
	if log == nil {
		log = sessionlog.NewMemoryLog(0)
	}
	return &Session{
		id:        id,
		analyzer:  analyzer,
		log:       log,
		observers: observers,
		logger:    slog.Default().With("component", "session", "session_id", id),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Analyzer returns the analyzer the session runs on.
func (s *Session) Analyzer() *Analyzer { return s.analyzer }

// AnalyzeRoute analyzes one route and records it.
func (s *Session) AnalyzeRoute(ctx context.Context, source, destination string) models.AnalysisResult {
	result := s.analyzer.AnalyzeRoute(source, destination)
	s.record(ctx, source, destination, result)
	return result
}

// BatchAnalyze analyzes routes in order and records each result.
func (s *Session) BatchAnalyze(ctx context.Context, routes []models.Route) []models.AnalysisResult {
	results := s.analyzer.BatchAnalyze(routes)
	for i, r := range routes {
		s.record(ctx, r.Source, r.Destination, results[i])
	}
	return results
}

// Entries returns everything recorded so far.
func (s *Session) Entries(ctx context.Context) ([]sessionlog.Entry, error) {
	return s.log.Entries(ctx)
}

// Close closes the session log.
func (s *Session) Close() error {
	return s.log.Close()
}

func (s *Session) record(ctx context.Context, source, destination string, result models.AnalysisResult) {
	entry := sessionlog.NewEntry(s.id, source, destination, result, time.Now().UTC())
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Warn("recording analysis", "source", source, "destination", destination, "error", err)
	}

	if result.OK() {
		s.logger.Debug("route analyzed", "source", source, "destination", destination,
			"combination", entry.RiskCombination, "priority", entry.PriorityLevel)
	} else {
		s.logger.Debug("route rejected", "source", source, "destination", destination, "message", result.Message)
	}

	for _, o := range s.observers {
		o.Observe(entry, result)
	}
}
