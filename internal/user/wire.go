package user

import (
	"context"
	"time"

	"github.com/fernwood/fernwood/internal/cache"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/counter"
	"github.com/fernwood/fernwood/internal/database"
	"github.com/fernwood/fernwood/internal/notify/email"
	"github.com/fernwood/fernwood/internal/online"
	"github.com/fernwood/fernwood/internal/token"
	"github.com/redis/go-redis/v9"
)

// NewFromConfig builds a fully wired user service from the configuration:
// database, token service, mail dispatcher and, depending on the redis
// setting, shared or in-process registries and counters. The returned
// close function stops the mail workers and closes the database.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, func() error, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	var opts []token.Option
	if cfg.Tokens != nil {
		if cfg.Tokens.EmailMaxAge > 0 {
			opts = append(opts, token.WithEmailMaxAge(time.Duration(cfg.Tokens.EmailMaxAge)*time.Second))
		}
		if cfg.Tokens.AuthMaxAge > 0 {
			opts = append(opts, token.WithAuthMaxAge(time.Duration(cfg.Tokens.AuthMaxAge)*time.Second))
		}
	}
	tokens, err := token.New(cfg.Security.SecretKey, cfg.Security.Salt, opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	onlineTTL := online.DefaultTTL
	if cfg.Online != nil && cfg.Online.TTL > 0 {
		onlineTTL = time.Duration(cfg.Online.TTL) * time.Second
	}

	var (
		registry online.Registry
		counters *counter.Client
	)
	if cfg.Redis != nil && cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		registry = online.NewRedisRegistry(redisClient, onlineTTL)
		counters = counter.NewWithBacking(counter.NewRedisStore(redisClient), cache.NewRedisBacking(redisClient))
	} else {
		registry = online.NewMemoryRegistry(onlineTTL)
		counters = counter.New(counter.NewMemoryStore())
	}

	mailer := email.New(cfg.Email, cfg.Mailer)
	mailer.Start(ctx)

	service := NewService(db, tokens, mailer, registry, counters, cfg.Gravatar)

	closeFn := func() error {
		if err := mailer.Close(); err != nil {
			return err
		}
		return db.Close()
	}
	return service, closeFn, nil
}
