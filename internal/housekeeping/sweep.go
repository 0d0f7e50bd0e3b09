// Package housekeeping runs the periodic expired-temporary-credential
// sweep (SPEC_FULL.md §6). The sweep is report-only by default: the
// original system had no documented deletion semantics, so authcached only
// logs and counts (housekeeping.reportOnly=false opts into deletion).
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/metrics"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

// Config controls the sweep's schedule and destructiveness.
type Config struct {
	Interval   time.Duration
	ReportOnly bool
}

// Sweeper wraps gocron and periodically scans /set/temporarycredentials
// for expired entries.
type Sweeper struct {
	cron  gocron.Scheduler
	store store.Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

// New creates a Sweeper. Call Start to begin scheduling.
func New(s store.Store, cfg Config, log *zap.Logger) (*Sweeper, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("housekeeping: creating gocron scheduler: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{cron: cron, store: s, cfg: cfg, log: log.Named("housekeeping"), now: time.Now}, nil
}

// Start registers the recurring sweep job and starts the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() { s.sweepOnce(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("housekeeping: scheduling sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("housekeeping sweep scheduled", zap.Duration("interval", s.cfg.Interval), zap.Bool("reportOnly", s.cfg.ReportOnly))
	return nil
}

// Stop gracefully shuts the scheduler down.
func (s *Sweeper) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("housekeeping: shutdown: %w", err)
	}
	return nil
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	ids, err := s.store.SetMembers(ctx, model.SetTempCredentialsKey())
	if err != nil {
		s.log.Warn("sweep: failed to list temporary credentials", zap.Error(err))
		return
	}

	now := s.now()
	var expired int
	for _, id := range ids {
		raw, ok, err := s.store.Get(ctx, model.AccessKeyKey(id))
		if err != nil {
			s.log.Warn("sweep: failed to read credential", zap.String("accessKeyId", id), zap.Error(err))
			continue
		}
		if !ok {
			// Already removed; drop the stale index entry.
			s.removeIndexEntry(ctx, id)
			continue
		}
		rec, err := model.Decode([]byte(raw))
		if err != nil {
			continue
		}
		cred, ok := rec.(*model.TempCredential)
		if !ok || cred.Expiration == "" {
			continue
		}
		expiresAt, err := time.Parse(time.RFC3339, cred.Expiration)
		if err != nil || !now.After(expiresAt) {
			continue
		}

		expired++
		if s.cfg.ReportOnly {
			s.log.Info("expired temporary credential found", zap.String("accessKeyId", id), zap.Time("expiredAt", expiresAt))
			continue
		}

		s.log.Info("removing expired temporary credential", zap.String("accessKeyId", id))
		if err := s.store.Del(ctx, model.AccessKeyKey(id)); err != nil {
			s.log.Warn("sweep: failed to delete credential", zap.String("accessKeyId", id), zap.Error(err))
			continue
		}
		s.removeIndexEntry(ctx, id)
	}

	metrics.ExpiredTempCredentials.Set(float64(expired))
	s.log.Debug("sweep complete", zap.Int("checked", len(ids)), zap.Int("expired", expired))
}

func (s *Sweeper) removeIndexEntry(ctx context.Context, id string) {
	if err := s.store.SetRemove(ctx, model.SetTempCredentialsKey(), id); err != nil {
		s.log.Warn("sweep: failed to remove stale index entry", zap.String("accessKeyId", id), zap.Error(err))
	}
}
