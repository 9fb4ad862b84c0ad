// Package redis opens the optional go-redis client used for the shared
// principal cache.
//
//	if cfg.Redis.Enabled() {
//	    client, err := redis.Open(ctx, cfg.Redis)
//	    if err != nil {
//	        return err
//	    }
//	    defer client.Close()
//	}
//
// Open accepts redis:// and rediss:// URLs, applies pool settings from
// Config and pings the server, retrying RetryAttempts times with linear
// backoff. Healthcheck and Shutdown plug into the server's readiness checks
// and shutdown hooks.
package redis
