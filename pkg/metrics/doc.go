// Package metrics exposes Prometheus collectors for the HTTP layer and the
// two-factor enrollment flow.
//
// Collectors live on an isolated registry so tests can build as many
// instances as they like. Recording methods are safe on a nil *Metrics,
// which lets callers treat metrics as optional.
package metrics
