// Package cache holds short-lived lookups the gateway would otherwise repeat
// against upstream services, such as whether a tenant's durable principal
// already exists.
//
// [Memory] is the process-local default. [Redis] is used when REDIS_URL is
// set so that every replica sees the same entries:
//
//	principals := cache.NewRedis[bool](client, nil, cache.WithRedisDefaultTTL(10*time.Minute))
//	issuer, err := credentials.NewIssuer(tokens, identities, cfg, credentials.WithPrincipalCache(principals))
//
// [GetOrSet] collapses concurrent misses for one key into a single load.
package cache
