package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/bmvault/internal/config"
	"github.com/user/bmvault/internal/logger"
)

func validateRedisConfig(cfg config.RedisConfig) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("redis addr is empty")
	case cfg.ConnectTimeout <= 0:
		return fmt.Errorf("redis connect_timeout must be > 0, got %v", cfg.ConnectTimeout)
	case cfg.RetryInterval <= 0:
		return fmt.Errorf("redis retry_interval must be > 0, got %v", cfg.RetryInterval)
	case cfg.MaxWait <= 0:
		return fmt.Errorf("redis max_wait must be > 0, got %v", cfg.MaxWait)
	case cfg.PingTimeout <= 0:
		return fmt.Errorf("redis ping_timeout must be > 0, got %v", cfg.PingTimeout)
	case cfg.WarnThreshold < 0:
		return fmt.Errorf("redis warn_threshold must be >= 0, got %d", cfg.WarnThreshold)
	}
	return nil
}

// ConnectRedis dials redis and pings until it answers or ConnectTimeout runs
// out, doubling the wait between attempts up to MaxWait.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	if err := validateRedisConfig(cfg); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", cfg.Addr),
		logger.Duration("timeout", cfg.ConnectTimeout))

	start := time.Now()
	wait := cfg.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, cfg.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.String("addr", cfg.Addr),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis", logger.String("addr", cfg.Addr))
			}
			return client, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = client.Close()
			log.Error("redis unavailable",
				logger.String("addr", cfg.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", cfg.Addr, attempt, err)
		case <-timer.C:
		}

		fields := []logger.Field{
			logger.String("addr", cfg.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= cfg.WarnThreshold {
			log.Warn("redis connection failed, retrying", fields...)
		} else {
			log.Error("redis still unavailable, retrying", fields...)
		}

		wait *= 2
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}
}
