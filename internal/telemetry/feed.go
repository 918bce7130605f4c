package telemetry

import (
	"sync"
	"time"
)

// DecisionEvent is the live-feed projection of a decision record.
type DecisionEvent struct {
	Fingerprint       string    `json:"fingerprint"`
	Engine            string    `json:"engine"`
	Mode              string    `json:"mode"`
	DecisionLatencyMs float64   `json:"decisionLatencyMs"`
	Timestamp         time.Time `json:"timestamp"`
}

// Feed broadcasts decision events to live subscribers. Publishing never
// blocks: a subscriber that cannot keep up misses events instead of stalling
// the recorder.
type Feed struct {
	mu   sync.Mutex
	subs map[chan DecisionEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan DecisionEvent]struct{})}
}

// Subscribe returns a buffered event channel and a cancel function. The
// channel is closed on cancel.
func (f *Feed) Subscribe() (<-chan DecisionEvent, func()) {
	ch := make(chan DecisionEvent, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans the event out to all current subscribers, dropping on full
// buffers.
func (f *Feed) Publish(ev DecisionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
