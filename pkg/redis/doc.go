// Package redis connects to Redis with go-redis/v9.
//
// Connect retries the initial ping according to Config, and Healthcheck
// adapts a client to the readiness probe. The session package's RedisStore
// takes the returned client.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
