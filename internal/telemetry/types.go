package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"go-compass/internal/policy"
)

// DecisionRecord is one routing decision, append-only and immutable once
// written. The full policy is stored as a JSON column.
type DecisionRecord struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Fingerprint       string         `gorm:"uniqueIndex;size:64;not null" json:"fingerprint"`
	Engine            string         `gorm:"size:32;index" json:"engine"`
	Mode              string         `gorm:"size:16;index" json:"mode"`
	Policy            datatypes.JSON `json:"policy"`
	DecisionLatencyMs float64        `json:"decisionLatencyMs"`
	CreatedAt         time.Time      `gorm:"index" json:"timestamp"`
}

// OutcomeRecord reports how the execution of a routed request went. Linked
// to a DecisionRecord by fingerprint; written at most once.
type OutcomeRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Fingerprint        string    `gorm:"uniqueIndex;size:64;not null" json:"fingerprint"`
	Succeeded          bool      `json:"succeeded"`
	ExecutionLatencyMs float64   `json:"executionLatencyMs"`
	CreatedAt          time.Time `gorm:"index" json:"timestamp"`
}

// TimelineEntry pairs a decision with its outcome, if one was ever reported.
// A nil outcome means "unknown", not "failed".
type TimelineEntry struct {
	Decision DecisionRecord
	Outcome  *OutcomeRecord
}

// Fingerprint derives the stable identifier that links a decision to its
// later outcome. The content-hash prefix keeps identical prompts greppable
// in logs; the UUID suffix keeps repeated prompts distinct.
func Fingerprint(req policy.Request) string {
	h := sha256.New()
	h.Write([]byte(req.Prompt))
	if len(req.Metadata) > 0 {
		keys := make([]string, 0, len(req.Metadata))
		for k := range req.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := json.Marshal(req.Metadata[k])
			fmt.Fprintf(h, "%s=%s;", k, v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12] + "-" + uuid.New().String()
}

// MarshalPolicy serializes a policy for the JSON column.
func MarshalPolicy(p policy.RoutePolicy) (datatypes.JSON, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy: %w", err)
	}
	return datatypes.JSON(raw), nil
}
