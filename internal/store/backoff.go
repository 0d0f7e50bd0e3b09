package store

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// backoff computes a reconnect delay whose base doubles from 1s up to a 60s
// cap; a random jitter of up to 10% of the base is added on top (so a capped
// delay lies between 60s and 66s) to avoid a thundering herd of
// reconnecting clients after a shared Redis instance restarts.
type backoff struct {
	attempt int
}

const (
	backoffBase = time.Second
	backoffMax  = 60 * time.Second
)

func (b *backoff) next() time.Duration {
	d := backoffBase << uint(b.attempt)
	if d <= 0 || d > backoffMax {
		d = backoffMax
	}
	b.attempt++
	jitter := time.Duration(rand.Int63n(int64(d) / 5))
	return d - jitter/2 + jitter
}

func (b *backoff) reset() { b.attempt = 0 }

// logRetry escalates from Warn to Error once a connection has been down
// long enough that it is no longer a transient blip.
func logRetry(log *zap.Logger, attempt int, err error) {
	if attempt >= 5 {
		log.Error("redis reconnect failing", zap.Int("attempt", attempt), zap.Error(err))
		return
	}
	log.Warn("redis reconnect retrying", zap.Int("attempt", attempt), zap.Error(err))
}
