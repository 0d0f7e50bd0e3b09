package directory

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPageSize = 1000

// PollerConfig configures a Poller.
type PollerConfig struct {
	// StartChangeNumber is the last-delivered change number persisted by
	// the driver; the poller resumes from StartChangeNumber+1.
	StartChangeNumber int64
	// PollInterval is how long GetNext waits between empty polls.
	// SearchTimeout defaults to PollInterval/2 when zero.
	PollInterval  time.Duration
	SearchTimeout time.Duration
	// PageSize bounds each search; defaults to 1000.
	PageSize int
}

// Poller pulls ordered changelog entries from a Client, buffers them, and
// emits one at a time via GetNext (spec.md §4.2).
type Poller struct {
	client Client
	log    *zap.Logger

	pollInterval  time.Duration
	searchTimeout time.Duration
	pageSize      int

	mu       sync.Mutex
	buffer   []Entry
	nextCn   int64
	inFlight bool
	closed   bool

	observer Observer
}

// NewPoller constructs a Poller reading from client, starting after
// cfg.StartChangeNumber.
func NewPoller(client Client, cfg PollerConfig, log *zap.Logger) *Poller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = cfg.PollInterval / 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		client:        client,
		log:           log.Named("directory"),
		pollInterval:  cfg.PollInterval,
		searchTimeout: cfg.SearchTimeout,
		pageSize:      cfg.PageSize,
		nextCn:        cfg.StartChangeNumber + 1,
	}
}

// Subscribe registers the sole Observer for poll-cycle events. Must be
// called before the first GetNext; not safe to change concurrently with
// polling.
func (p *Poller) Subscribe(o Observer) { p.observer = o }

func (p *Poller) emit(e Event) {
	if p.observer != nil {
		p.observer.OnEvent(e)
	}
}

// GetNext returns the next changelog entry, blocking across as many empty
// or failed polls as it takes (spaced PollInterval apart) until one arrives or ctx
// is cancelled.
//
// Because the driver calls GetNext, fully processes, and commits one entry
// before calling GetNext again, by the time the buffer drains and a fresh
// poll happens, every previously delivered entry has already been
// committed — satisfying spec.md §5's ordering requirement that fresh/stale
// events never race ahead of the store commit, without the poller needing
// to know anything about commits itself.
func (p *Poller) GetNext(ctx context.Context) (Entry, error) {
	if e, ok := p.popBuffered(); ok {
		return e, nil
	}

	for {
		if p.isClosed() {
			return Entry{}, ErrClosed
		}

		entries, err := p.poll(ctx)
		if err == errPollFailed {
			select {
			case <-ctx.Done():
				return Entry{}, ctx.Err()
			case <-time.After(p.pollInterval):
			}
			continue
		}
		if err != nil {
			return Entry{}, err
		}

		if len(entries) == 0 {
			p.emit(EventFresh)
			select {
			case <-ctx.Done():
				return Entry{}, ctx.Err()
			case <-time.After(p.pollInterval):
			}
			continue
		}

		p.emit(EventStale)
		p.mu.Lock()
		p.buffer = entries
		p.mu.Unlock()

		if e, ok := p.popBuffered(); ok {
			return e, nil
		}
	}
}

func (p *Poller) popBuffered() (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) == 0 {
		return Entry{}, false
	}
	e := p.buffer[0]
	p.buffer = p.buffer[1:]
	return e, true
}

// errPollFailed is poll's signal to GetNext that the search failed; GetNext
// waits one PollInterval and polls again without emitting any event.
var errPollFailed = errors.New("directory: changelog poll failed")

// poll guards against re-entrancy, arms the watchdog timeout, and fetches
// one page. Transport/timeout errors are logged and reported as
// errPollFailed — nextCn is never advanced on failure, so the next tick
// retries the same window (spec.md §4.2 failure semantics).
func (p *Poller) poll(ctx context.Context) ([]Entry, error) {
	if !p.startInFlight() {
		return nil, ErrSearchInFlight
	}
	defer p.endInFlight()

	searchCtx, cancel := context.WithTimeout(ctx, p.searchTimeout)
	defer cancel()

	p.mu.Lock()
	req := SearchRequest{MinChangeNumber: p.nextCn, PageSize: p.pageSize}
	p.mu.Unlock()

	entries, err := p.client.SearchChangelog(searchCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("changelog poll failed, will retry", zap.Int64("nextCn", req.MinChangeNumber), zap.Error(err))
		return nil, errPollFailed
	}

	if len(entries) > 0 {
		p.mu.Lock()
		p.nextCn = entries[len(entries)-1].ChangeNumber + 1
		p.mu.Unlock()
	}
	return entries, nil
}

func (p *Poller) startInFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Poller) endInFlight() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Poller) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close releases the directory-server connection. Safe to call once.
func (p *Poller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.client.Close()
}
