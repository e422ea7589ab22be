// Package httpserver runs the application's http.Handler with configured
// timeouts and graceful shutdown on context cancellation, SIGINT or SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Liveness and readiness probes are built with LivenessHandler and
// ReadinessHandler; the latter runs every named Check and reports each result.
package httpserver
