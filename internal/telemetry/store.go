package telemetry

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryStore is the append-only routing history. It exclusively owns
// DecisionRecord and OutcomeRecord rows; writes are order-independent, so the
// only concurrency guarantee needed is that no write is lost.
type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// AppendDecision persists one routing decision.
func (s *HistoryStore) AppendDecision(rec *DecisionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

// AppendOutcome persists an execution outcome. At most one outcome per
// fingerprint is kept; a duplicate report is ignored rather than overwriting
// the first one. Returns whether this call inserted the row.
func (s *HistoryStore) AppendOutcome(rec *OutcomeRecord) (bool, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("failed to append outcome: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// QueryWindow returns all decisions made in [start, end) paired with their
// outcomes where one was reported. Missing outcomes are legitimate: the
// request may still be in flight or the caller never reported back.
func (s *HistoryStore) QueryWindow(start, end time.Time) ([]TimelineEntry, error) {
	var decisions []DecisionRecord
	err := s.db.
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at asc").
		Find(&decisions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	if len(decisions) == 0 {
		return []TimelineEntry{}, nil
	}

	fingerprints := make([]string, len(decisions))
	for i, d := range decisions {
		fingerprints[i] = d.Fingerprint
	}
	var outcomes []OutcomeRecord
	if err := s.db.Where("fingerprint IN ?", fingerprints).Find(&outcomes).Error; err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	byFingerprint := make(map[string]*OutcomeRecord, len(outcomes))
	for i := range outcomes {
		byFingerprint[outcomes[i].Fingerprint] = &outcomes[i]
	}

	entries := make([]TimelineEntry, len(decisions))
	for i, d := range decisions {
		entries[i] = TimelineEntry{Decision: d, Outcome: byFingerprint[d.Fingerprint]}
	}
	return entries, nil
}
