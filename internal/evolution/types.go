package evolution

import (
	"context"
	"time"
)

// State is the recommendation lifecycle. Terminal states are final.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

// Priority and impact levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Recommendation types produced by the analyzer.
const (
	TypeImproveRouting      = "improve-routing"
	TypeOptimizePerformance = "optimize-performance"
	TypeStrengthenCurrent   = "strengthen-current"
)

// Recommendation is a proposed change to routing behavior. Inert until a
// human approves it; approval only records intent, it never mutates engine
// configuration.
type Recommendation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Type      string    `gorm:"size:48;index" json:"type"`
	Priority  string    `gorm:"size:8" json:"priority"`
	Reason    string    `json:"reason"`
	Action    string    `json:"action"`
	Impact    string    `gorm:"size:8" json:"impact"`
	State     State     `gorm:"size:10;index;default:'pending'" json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DailySummary is the derived performance summary for one calendar day.
// A rerun for the same day replaces the row rather than appending.
type DailySummary struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Date          string    `gorm:"uniqueIndex;size:10;not null" json:"date"`
	TotalRequests int       `json:"totalRequests"`
	KnownOutcomes int       `json:"knownOutcomes"`
	SuccessRate   float64   `json:"successRate"`
	AvgLatencyMs  float64   `json:"avgLatencyMs"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// Notifier is the external notification boundary: deliver a run summary,
// expect no confirmation.
type Notifier interface {
	NotifyRunComplete(ctx context.Context, summary DailySummary, recs []Recommendation)
}
