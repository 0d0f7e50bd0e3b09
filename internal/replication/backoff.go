package replication

import (
	"math/rand"
	"time"
)

// backoffState doubles a retry delay's base from 1s up to a 60s cap and adds
// a random jitter of up to 10% of the base on top, the same schedule as
// internal/store's connection backoff (spec.md §5: "exponential backoff
// (1s -> 60s), unbounded by default").
type backoffState struct {
	attempt int
}

const (
	backoffBase = time.Second
	backoffMax  = 60 * time.Second
)

func (b *backoffState) next() time.Duration {
	d := backoffBase << uint(b.attempt)
	if d <= 0 || d > backoffMax {
		d = backoffMax
	}
	b.attempt++
	jitter := time.Duration(rand.Int63n(int64(d) / 5))
	return d - jitter/2 + jitter
}

func (b *backoffState) reset() { b.attempt = 0 }
