package store

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// debugHookEnabled reports whether REDIS_DEBUG is set, enabling
// command-level logging of every call made against the store. Meant for
// local troubleshooting, not production use — it logs every dial, command
// name and pipeline with its duration.
func debugHookEnabled() bool {
	return os.Getenv("REDIS_DEBUG") != ""
}

type debugHook struct {
	log *zap.Logger
}

func newDebugHook(log *zap.Logger) redis.Hook { return debugHook{log: log} }

func (h debugHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		h.log.Debug("dial", zap.String("addr", addr), zap.Duration("took", time.Since(start)), zap.Error(err))
		return conn, err
	}
}

func (h debugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.log.Debug("cmd", zap.String("name", cmd.Name()), zap.Duration("took", time.Since(start)), zap.Error(err))
		return err
	}
}

func (h debugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.log.Debug("pipeline", zap.Int("n", len(cmds)), zap.Duration("took", time.Since(start)), zap.Error(err))
		return err
	}
}
