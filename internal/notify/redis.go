package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"go-compass/internal/config"
	"go-compass/internal/evolution"
)

// RedisNotifier publishes analyzer run summaries to a Redis pub/sub channel.
// Fire-and-forget: delivery failures are logged, never surfaced to the
// analyzer.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(cfg *config.Config) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		channel: cfg.Analyzer.NotifyChannel,
	}
}

type runMessage struct {
	Summary         evolution.DailySummary     `json:"summary"`
	Recommendations []evolution.Recommendation `json:"recommendations"`
	PendingReview   int                        `json:"pendingReview"`
}

// NotifyRunComplete delivers one message per analyzer run. An empty
// recommendation list still produces a message: it signals "analysis ran,
// nothing to review".
func (n *RedisNotifier) NotifyRunComplete(ctx context.Context, summary evolution.DailySummary, recs []evolution.Recommendation) {
	msg := runMessage{
		Summary:         summary,
		Recommendations: recs,
		PendingReview:   len(recs),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Notifier] ERROR: failed to marshal run message: %v", err)
		return
	}
	if err := n.client.Publish(ctx, n.channel, raw).Err(); err != nil {
		log.Printf("[Notifier] WARNING: publish to %s failed: %v", n.channel, err)
	}
}
