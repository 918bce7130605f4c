package telemetry

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&DecisionRecord{}, &OutcomeRecord{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestHistoryStore_AppendAndQueryWindow(t *testing.T) {
	store := NewHistoryStore(testDB(t))
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.AppendDecision(&DecisionRecord{
			Fingerprint: fmt.Sprintf("fp-%d", i),
			Engine:      "local-general",
			Mode:        "chat",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("append decision: %v", err)
		}
	}
	// Outcome for the first decision only.
	inserted, err := store.AppendOutcome(&OutcomeRecord{
		Fingerprint:        "fp-0",
		Succeeded:          true,
		ExecutionLatencyMs: 900,
	})
	if err != nil || !inserted {
		t.Fatalf("append outcome: inserted=%v err=%v", inserted, err)
	}

	entries, err := store.QueryWindow(base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Outcome == nil || !entries[0].Outcome.Succeeded {
		t.Errorf("expected outcome on first entry, got %+v", entries[0].Outcome)
	}
	if entries[1].Outcome != nil || entries[2].Outcome != nil {
		t.Errorf("expected missing outcomes to stay nil (unknown, not failed)")
	}
}

func TestHistoryStore_QueryWindowBounds(t *testing.T) {
	store := NewHistoryStore(testDB(t))
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	inside := &DecisionRecord{Fingerprint: "inside", Engine: "local-fast", Mode: "chat", CreatedAt: base.Add(time.Hour)}
	after := &DecisionRecord{Fingerprint: "after", Engine: "local-fast", Mode: "chat", CreatedAt: base.Add(25 * time.Hour)}
	for _, rec := range []*DecisionRecord{inside, after} {
		if err := store.AppendDecision(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := store.QueryWindow(base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(entries) != 1 || entries[0].Decision.Fingerprint != "inside" {
		t.Errorf("expected only the in-window decision, got %+v", entries)
	}
}

func TestHistoryStore_DuplicateOutcomeIgnored(t *testing.T) {
	store := NewHistoryStore(testDB(t))
	inserted, err := store.AppendOutcome(&OutcomeRecord{Fingerprint: "fp", Succeeded: true, ExecutionLatencyMs: 100})
	if err != nil || !inserted {
		t.Fatalf("first outcome: inserted=%v err=%v", inserted, err)
	}
	// Second report for the same fingerprint must not overwrite the first.
	inserted, err = store.AppendOutcome(&OutcomeRecord{Fingerprint: "fp", Succeeded: false, ExecutionLatencyMs: 5000})
	if err != nil {
		t.Fatalf("second outcome: %v", err)
	}
	if inserted {
		t.Errorf("duplicate outcome must report not inserted")
	}

	var outcomes []OutcomeRecord
	if err := store.db.Find(&outcomes).Error; err != nil {
		t.Fatalf("load outcomes: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected a single outcome row, got %d", len(outcomes))
	}
	if !outcomes[0].Succeeded {
		t.Errorf("first write must win; outcome was overwritten")
	}
}
