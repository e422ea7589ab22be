// Package clientip resolves the address of the client behind a request and
// carries it in the request context for logging.
//
// Forwarding headers are only honoured when the Resolver trusts them, i.e.
// when the service runs behind a proxy that overwrites them.
package clientip
