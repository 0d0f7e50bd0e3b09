// Command authcached is the authcache daemon: it replicates account/user
// identities out of an LDAP changelog into a key-value cache and serves
// SigV4 verification plus read-only lookups over HTTP (SPEC_FULL.md §1,§6).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/api"
	"github.com/arkeep-io/authcache/internal/applog"
	"github.com/arkeep-io/authcache/internal/config"
	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/housekeeping"
	"github.com/arkeep-io/authcache/internal/metrics"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/replication"
	"github.com/arkeep-io/authcache/internal/sessiontoken"
	"github.com/arkeep-io/authcache/internal/store"
	"github.com/arkeep-io/authcache/internal/verify"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "authcached",
		Short: "authcached — SigV4-verifying identity cache for the directory",
		Long: `authcached replicates account, user and role objects out of an LDAP
changelog into a key-value cache, and serves AWS SigV4 request verification
and read-only identity lookups over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	root.AddCommand(newVersionCmd())
	root.PersistentFlags().StringVar(&configPath, "config", envOrDefault("AUTHCACHED_CONFIG", "/etc/authcached/config.json"), "path to the JSON config file")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("authcached %s (commit: %s)\n", version, commit)
		},
	}
}

func run(ctx context.Context, configPath string) error {
	// --- 1. Config ---
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// --- 2. Logger ---
	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting authcached",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("redis_debug", applog.RedisDebugEnabled()),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- 3. Store ---
	s := store.New(store.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)

	// --- 4. Directory changelog poller ---
	ldapClient, err := directory.DialLDAP(directory.LDAPConfig{
		URL:             cfg.Directory.URL,
		BindDN:          cfg.Directory.BindDN,
		Password:        cfg.Directory.Password,
		ChangelogBaseDN: cfg.Directory.ChangelogBaseDN,
		DialTimeout:     cfg.Directory.DialTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to dial directory: %w", err)
	}
	defer ldapClient.Close()

	startCn, err := lastChangeNumber(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to read last change number: %w", err)
	}
	poller := directory.NewPoller(ldapClient, directory.PollerConfig{
		StartChangeNumber: startCn,
		PollInterval:      cfg.Directory.PollInterval,
		PageSize:          cfg.Directory.PageSize,
	}, logger)

	// --- 5. Replication driver ---
	driver, err := replication.NewDriver(ctx, poller, s, logger)
	if err != nil {
		return fmt.Errorf("failed to create replication driver: %w", err)
	}
	driver.OnReady(func() { logger.Info("cache is now authoritative") })

	go func() {
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("replication driver stopped", zap.Error(err))
			cancel()
		}
	}()

	// --- 6. Housekeeping sweep ---
	if cfg.Housekeeping.Enabled {
		sweeper, err := housekeeping.New(s, housekeeping.Config{
			Interval:   cfg.Housekeeping.Interval,
			ReportOnly: cfg.Housekeeping.ReportOnly,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create housekeeping sweeper: %w", err)
		}
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start housekeeping sweeper: %w", err)
		}
		defer func() {
			if err := sweeper.Stop(); err != nil {
				logger.Warn("housekeeping shutdown error", zap.Error(err))
			}
		}()
	}

	// --- 7. Verification stack ---
	resolver := credentials.New(s, nil)
	tokens := sessiontoken.NewValidator(cfg.SessionTokenKeyring)
	verifier := verify.New(resolver, tokens, logger, nil)

	// --- 8. HTTP API server ---
	router := api.NewRouter(api.RouterConfig{
		Store:    s,
		Resolver: resolver,
		Verifier: verifier,
		Logger:   logger,
		Ready:    driver.Ready,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	// --- 9. Metrics server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
			cancel()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down authcached")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server graceful shutdown error", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server graceful shutdown error", zap.Error(err))
	}

	logger.Info("authcached stopped")
	return nil
}

func lastChangeNumber(ctx context.Context, s store.Store) (int64, error) {
	raw, ok, err := s.Get(ctx, model.ChangeNumberKey())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var n int64
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, err
	}
	return n, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
