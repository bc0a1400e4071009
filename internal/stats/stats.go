// Package stats keeps in-memory counters for the current server session.
package stats

import (
	"math"
	"sync"
	"time"

	"github.com/Bahjat/phishguard/backend/internal/model"
)

// Session accumulates verdict counts since the server started.
// It is safe for concurrent use.
type Session struct {
	mu              sync.Mutex
	total           int
	phishing        int
	confidenceTotal float64
	start           time.Time
}

// NewSession starts a session now.
func NewSession() *Session {
	return &Session{start: time.Now()}
}

// Record counts one completed analysis.
func (s *Session) Record(isPhishing bool, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if isPhishing {
		s.phishing++
	}
	s.confidenceTotal += confidence
}

// Snapshot returns the current totals.
func (s *Session) Snapshot() model.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avg float64
	if s.total > 0 {
		avg = math.Round(s.confidenceTotal/float64(s.total)*1e4) / 1e4
	}
	return model.SessionStats{
		TotalAnalyzed:      s.total,
		PhishingDetected:   s.phishing,
		LegitimateDetected: s.total - s.phishing,
		AvgConfidence:      avg,
		SessionStart:       s.start.UTC().Format(time.RFC3339),
	}
}
