package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNoURL       = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL  = errors.New("redis: invalid connection URL")
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrUnhealthy   = errors.New("redis: healthcheck failed")
)

// Healthcheck pings the server for the readiness endpoint.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrUnhealthy
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}

// Shutdown closes the client as a server shutdown hook.
func Shutdown(client redis.UniversalClient) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
