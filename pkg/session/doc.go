// Package session keeps server-side sessions for the web application.
//
// A Manager ties together a Store (memory or Redis) that persists Session
// records and a Transport that carries the opaque session token, by default an
// HMAC-signed cookie. Sessions start anonymous, become authenticated after a
// password login (Authenticate rotates the token) and are marked OTP verified
// once the user proves possession of a confirmed device (Verify).
//
//	mgr := session.New(
//	    session.WithConfig(cfg),
//	    session.WithStore(session.NewRedisStore(redisClient)),
//	    session.WithCookieManager(cookies),
//	)
//	defer mgr.Close()
//
//	r.Use(mgr.Middleware)
//
// Handlers read the current session with FromContext and persist changes to
// Data through Manager.Save.
package session
