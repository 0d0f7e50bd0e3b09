// Command replay feeds a newline-delimited JSON changelog file, captured
// from a directory server or written by hand, through the same transformer
// the live daemon uses — for offline reprocessing and reproduction of
// replication bugs without a directory connection (SPEC_FULL.md §0).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/applog"
	"github.com/arkeep-io/authcache/internal/config"
	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/replication"
	"github.com/arkeep-io/authcache/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, inputPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "replay a captured changelog file against a cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, inputPath, dryRun)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "/etc/authcached/config.json", "path to the JSON config file (for the redis connection)")
	cmd.Flags().StringVar(&inputPath, "input", "-", "path to a newline-delimited JSON file of changelog entries, or - for stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log each entry without transforming it or connecting to the store")

	return cmd
}

func run(ctx context.Context, configPath, inputPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	in := os.Stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", inputPath, err)
		}
		defer f.Close()
		in = f
	}

	var s store.Store
	var transformer *replication.Transformer
	if !dryRun {
		s = store.New(store.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		transformer = replication.New(s, logger)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var applied, failed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry directory.Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.Warn("skipping malformed line", zap.Error(err))
			failed++
			continue
		}

		if dryRun {
			logger.Info("would apply entry", zap.Int64("changenumber", entry.ChangeNumber), zap.String("targetdn", entry.TargetDN), zap.String("changetype", entry.ChangeType))
			applied++
			continue
		}

		batch := s.NewBatch()
		if err := transformer.Transform(ctx, batch, entry); err != nil {
			logger.Warn("transform failed, skipping entry", zap.Int64("changenumber", entry.ChangeNumber), zap.Error(err))
			failed++
			continue
		}
		batch.Set(model.ChangeNumberKey(), strconv.FormatInt(entry.ChangeNumber, 10))
		if err := s.Commit(ctx, batch); err != nil {
			return fmt.Errorf("commit failed at changenumber %d: %w", entry.ChangeNumber, err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	logger.Info("replay complete", zap.Int("applied", applied), zap.Int("failed", failed))
	return nil
}
