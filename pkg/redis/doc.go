// Package redis connects to the Redis server that backs the shared upload
// quota when formkit runs as more than one instance.
//
// Connect parses a redis:// URL, pings the server and retries with a pause
// between attempts until it answers or the connect timeout expires:
//
//	var cfg redis.Config // REDIS_URL, REDIS_RETRY_ATTEMPTS, ...
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Healthcheck adapts the client to a readiness probe for httpserver.HealthHandler.
//
// Failures wrap the package sentinels (ErrRedisNotReady, ErrHealthcheckFailed, ...)
// with errors.Join, so callers match them with errors.Is.
package redis
