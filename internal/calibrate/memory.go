package calibrate

import (
	"context"
	"sync"
	"time"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// MemoryFeedbackStore keeps the feedback ledger in process memory. Points
// are append-only; pruning drops aged-out prefixes without mutating
// surviving points.
type MemoryFeedbackStore struct {
	mu     sync.RWMutex
	points []DataPoint
}

// NewMemoryFeedbackStore creates an empty in-memory ledger.
func NewMemoryFeedbackStore() *MemoryFeedbackStore {
	return &MemoryFeedbackStore{}
}

var _ FeedbackStore = (*MemoryFeedbackStore)(nil)

// Append records a feedback point.
func (s *MemoryFeedbackStore) Append(_ context.Context, p DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
	return nil
}

// Recent returns points for the query type recorded at or after the cutoff.
func (s *MemoryFeedbackStore) Recent(_ context.Context, queryType search.QueryType, cutoff time.Time) ([]DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]DataPoint, 0)
	for _, p := range s.points {
		if p.QueryType == queryType && !p.Timestamp.Before(cutoff) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Prune drops points older than the cutoff.
func (s *MemoryFeedbackStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.points[:0]
	for _, p := range s.points {
		if !p.Timestamp.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	pruned := len(s.points) - len(kept)
	s.points = kept
	return pruned, nil
}

// Count returns the number of stored points.
func (s *MemoryFeedbackStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Close is a no-op for the in-memory store.
func (s *MemoryFeedbackStore) Close() error {
	return nil
}
