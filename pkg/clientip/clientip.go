package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/settlex/settlex/pkg/logger"
)

// DefaultHeaders are consulted in order when proxy headers are trusted.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

type Config struct {
	TrustProxy bool     `env:"HTTP_TRUST_PROXY" envDefault:"false"`
	Headers    []string `env:"HTTP_CLIENT_IP_HEADERS" envSeparator:","`
}

// Resolver extracts client addresses from requests.
type Resolver struct {
	headers []string
}

// New returns a Resolver for cfg. Without TrustProxy only RemoteAddr is used.
func New(cfg Config) *Resolver {
	r := &Resolver{}
	if cfg.TrustProxy {
		r.headers = cfg.Headers
		if len(r.headers) == 0 {
			r.headers = DefaultHeaders
		}
	}
	return r
}

// IP returns the normalized client address, or "" when none is valid.
// For X-Forwarded-For the left-most valid entry wins.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		for v := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := parse(v); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

func parse(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

// Middleware stores the client address in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.IP(r))))
	})
}

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// LoggerExtractor adds client_ip to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return slog.String("client_ip", ip), true
		}
		return slog.Attr{}, false
	}
}
