package replication

import (
	"context"
	"strconv"
	"time"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/metrics"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
	"go.uber.org/zap"
)

// Poller is the subset of directory.Poller the driver depends on.
type Poller interface {
	GetNext(ctx context.Context) (directory.Entry, error)
	Subscribe(o directory.Observer)
}

// Driver binds the poller, the transformer and the store into the
// replication loop (spec.md §4.4). It is the sole writer of the cache.
type Driver struct {
	poller      Poller
	transformer *Transformer
	store       store.Store
	log         *zap.Logger

	currentChangeNumber int64
	virgin              bool

	onReady func()
}

// NewDriver loads changenumber/virgin from the store and wires poller +
// transformer. Call Run to start the loop.
func NewDriver(ctx context.Context, poller Poller, s store.Store, log *zap.Logger) (*Driver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("replication")

	d := &Driver{
		poller:      poller,
		transformer: New(s, log),
		store:       s,
		log:         log,
	}

	raw, ok, err := s.Get(ctx, model.ChangeNumberKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		d.virgin = true
		if err := s.Set(ctx, model.VirginKey(), "true"); err != nil {
			return nil, err
		}
	} else {
		cn, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		d.currentChangeNumber = cn
		_, virginPresent, err := s.Get(ctx, model.VirginKey())
		if err != nil {
			return nil, err
		}
		d.virgin = virginPresent
	}

	metrics.ReplicationChangeNumber.Set(float64(d.currentChangeNumber))
	metrics.ReplicationVirgin.Set(virginGaugeValue(d.virgin))

	poller.Subscribe(directory.ObserverFunc(d.onPollEvent))
	return d, nil
}

func virginGaugeValue(virgin bool) float64 {
	if virgin {
		return 1
	}
	return 0
}

// OnReady registers a callback fired exactly once, the moment the driver
// clears the virgin flag. Used by cmd/authcached to flip a readiness probe.
func (d *Driver) OnReady(f func()) { d.onReady = f }

// Ready reports whether the cache has caught up with the directory
// (spec.md §4.4 "ready to serve" health signal).
func (d *Driver) Ready() bool { return !d.virgin }

// ChangeNumber returns the last successfully-applied change number, for
// metrics and diagnostics.
func (d *Driver) ChangeNumber() int64 { return d.currentChangeNumber }

func (d *Driver) onPollEvent(e directory.Event) {
	if e != directory.EventFresh || !d.virgin {
		return
	}
	ctx := context.Background()
	if err := d.store.Del(ctx, model.VirginKey()); err != nil {
		d.log.Error("failed to clear virgin flag", zap.Error(err))
		return
	}
	d.virgin = false
	metrics.ReplicationVirgin.Set(0)
	d.log.Info("replication caught up, cache is now authoritative")
	if d.onReady != nil {
		d.onReady()
	}
}

// Run executes the strictly-serial main loop until ctx is cancelled
// (spec.md §4.4 and §5). Each entry is fetched, transformed, committed and
// only then is the next one fetched — two transforms are never in flight
// at once.
func (d *Driver) Run(ctx context.Context) error {
	backoff := &backoffState{}
	for {
		entry, err := d.poller.GetNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		for {
			err := d.applyEntry(ctx, entry)
			if err == nil {
				backoff.reset()
				break
			}
			if err == ErrUnsupportedOperation {
				d.log.Error("unsupported changelog operation, change number not advanced",
					zap.Int64("changenumber", entry.ChangeNumber), zap.String("targetdn", entry.TargetDN))
				break
			}
			d.log.Warn("store commit failed, retrying entry", zap.Int64("changenumber", entry.ChangeNumber), zap.Error(err))
			delay := backoff.next()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

func (d *Driver) applyEntry(ctx context.Context, entry directory.Entry) error {
	batch := d.store.NewBatch()
	if err := d.transformer.Transform(ctx, batch, entry); err != nil {
		return err
	}
	if entry.ChangeNumber > d.currentChangeNumber {
		batch.Set(model.ChangeNumberKey(), strconv.FormatInt(entry.ChangeNumber, 10))
	}
	if err := d.store.Commit(ctx, batch); err != nil {
		return err
	}
	if entry.ChangeNumber > d.currentChangeNumber {
		d.currentChangeNumber = entry.ChangeNumber
		metrics.ReplicationChangeNumber.Set(float64(d.currentChangeNumber))
	}
	return nil
}
