// Package requestid tags every request with a correlation ID.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// echoes it in the response and stores it in the request context.
// LoggerExtractor plugs the ID into logger.WithContextExtractors so every
// record logged with the request context carries it.
package requestid
