package retrieval

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrBackendUnavailable is returned while the breaker is open and retrieval
// calls are being short-circuited.
var ErrBackendUnavailable = errors.New("retrieval backend unavailable")

type breakerState string

const (
	breakerClosed   breakerState = "closed"
	breakerOpen     breakerState = "open"
	breakerHalfOpen breakerState = "half-open"
)

// Breaker stops retrieval calls to a failing backend. After enough
// consecutive failures it opens and rejects calls until the cooldown passes,
// then lets probes through until one succeeds.
type Breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{state: breakerClosed, threshold: threshold, cooldown: cooldown}
}

// Do runs fn unless the breaker is open. The returned error is either
// ErrBackendUnavailable or whatever fn returned.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrBackendUnavailable
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerOpen {
		if time.Since(b.lastFailure) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		log.Printf("[RetrievalBreaker] Cooldown elapsed, probing backend")
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		if b.state != breakerClosed {
			log.Printf("[RetrievalBreaker] Backend recovered, closing")
		}
		b.state = breakerClosed
		b.failures = 0
		return
	}
	b.failures++
	b.lastFailure = time.Now()
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		if b.state != breakerOpen {
			log.Printf("[RetrievalBreaker] Opening after %d consecutive failures", b.failures)
		}
		b.state = breakerOpen
	}
}
