// Package ratelimiter throttles repeated attempts with a token bucket.
//
// Each key (a user, an email address) starts with Capacity tokens and gets
// RefillRate tokens back every RefillInterval. An attempt takes one token;
// with none left it is denied until the next refill. Reset forgets a key,
// typically after a successful attempt.
//
//	limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(), cfg)
//	res, err := limiter.Allow(ctx, "otp:"+userID.String())
//	if !res.Allowed() {
//		// wait res.RetryAfter()
//	}
//
// MemoryStore suits a single process; RedisStore shares buckets between
// instances. A nil *Limiter allows everything.
package ratelimiter
