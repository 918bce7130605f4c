package evolution

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DecisionResult distinguishes the three user-visible outcomes of an
// approval call. "Already decided" and "not found" are not errors.
type DecisionResult string

const (
	ResultApplied        DecisionResult = "applied"
	ResultAlreadyDecided DecisionResult = "already_decided"
	ResultNotFound       DecisionResult = "not_found"
)

// Store owns Recommendation lifecycle state and the persisted daily
// summaries. State transitions go through conditional updates, so concurrent
// approve/reject calls on the same id resolve to first-writer-wins with the
// loser seeing "already decided".
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns recommendations, optionally filtered by state. An empty
// filter returns everything, newest first.
func (s *Store) List(stateFilter State) ([]Recommendation, error) {
	q := s.db.Order("created_at desc")
	if stateFilter != "" {
		q = q.Where("state = ?", stateFilter)
	}
	var recs []Recommendation
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// Get looks up one recommendation by id.
func (s *Store) Get(id string) (*Recommendation, error) {
	var rec Recommendation
	err := s.db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	return &rec, nil
}

// Approve transitions a pending recommendation to approved.
func (s *Store) Approve(id string) (DecisionResult, error) {
	return s.decide(id, StateApproved)
}

// Reject transitions a pending recommendation to rejected.
func (s *Store) Reject(id string) (DecisionResult, error) {
	return s.decide(id, StateRejected)
}

func (s *Store) decide(id string, target State) (DecisionResult, error) {
	res := s.db.Model(&Recommendation{}).
		Where("id = ? AND state = ?", id, StatePending).
		Update("state", target)
	if res.Error != nil {
		return "", fmt.Errorf("failed to update recommendation: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return ResultApplied, nil
	}
	rec, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return ResultNotFound, nil
	}
	return ResultAlreadyDecided, nil
}

// ApproveAll transitions every pending recommendation to approved and
// returns how many were affected.
func (s *Store) ApproveAll() (int64, error) {
	return s.decideAll(StateApproved)
}

// RejectAll transitions every pending recommendation to rejected.
func (s *Store) RejectAll() (int64, error) {
	return s.decideAll(StateRejected)
}

func (s *Store) decideAll(target State) (int64, error) {
	res := s.db.Model(&Recommendation{}).
		Where("state = ?", StatePending).
		Update("state", target)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to batch update recommendations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// HasPending reports whether a pending recommendation of the given type
// already exists; used by the analyzer to keep reruns idempotent.
func (s *Store) HasPending(recType string) (bool, error) {
	var count int64
	err := s.db.Model(&Recommendation{}).
		Where("type = ? AND state = ?", recType, StatePending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count pending recommendations: %w", err)
	}
	return count > 0, nil
}

// SaveSummary upserts the summary for its date: a rerun replaces the day's
// row instead of appending.
func (s *Store) SaveSummary(sum *DailySummary) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_requests", "known_outcomes", "success_rate", "avg_latency_ms", "updated_at",
		}),
	}).Create(sum).Error
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// SummaryFor returns the persisted summary for a date, or nil.
func (s *Store) SummaryFor(date string) (*DailySummary, error) {
	var sum DailySummary
	err := s.db.First(&sum, "date = ?", date).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	return &sum, nil
}

// CreateRecommendations persists a batch inside one transaction.
func (s *Store) CreateRecommendations(recs []Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	if err := s.db.Create(&recs).Error; err != nil {
		return fmt.Errorf("failed to create recommendations: %w", err)
	}
	return nil
}
