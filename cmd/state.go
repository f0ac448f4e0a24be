package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"appointment-watcher/apperr"
	"appointment-watcher/config"
	"appointment-watcher/storage"
)

// openStore выбирает хранилище состояния по конфигу. Redis проверяется пингом сразу,
// чтобы не узнать о недоступности посреди цикла.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func() error, error) {
	if err := cfg.ValidateState(); err != nil {
		return nil, nil, apperr.Wrap(apperr.ConfigFatal, "state config", err)
	}

	switch cfg.State.Backend {
	case config.BackendRedis:
		rs := storage.NewRedisStore(cfg.State.Redis.Addr, cfg.State.Redis.Password, cfg.State.Redis.DB)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, apperr.Wrap(apperr.ConfigFatal, "redis ping", fmt.Errorf("redis connection failed: %w", err))
		}
		logger.Info("🗄 using redis state store", "addr", cfg.State.Redis.Addr, "db", cfg.State.Redis.DB)
		return rs, rs.Close, nil
	default:
		fs := storage.NewFileStore(cfg.State.File)
		logger.Info("🗄 using file state store", "path", fs.Path())
		return fs, func() error { return nil }, nil
	}
}
