package clientip_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/settlex/settlex/pkg/clientip"
	"github.com/settlex/settlex/pkg/logger"
)

func TestResolverIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        clientip.Config
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "203.0.113.7:52100",
			want:       "203.0.113.7",
		},
		{
			name:       "headers ignored without trust",
			remoteAddr: "10.0.0.2:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "10.0.0.2",
		},
		{
			name:       "forwarded for behind proxy",
			cfg:        clientip.Config{TrustProxy: true},
			remoteAddr: "10.0.0.2:1234",
			headers:    map[string]string{"X-Forwarded-For": "junk, 198.51.100.1, 10.0.0.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "cloudflare header first",
			cfg:        clientip.Config{TrustProxy: true},
			remoteAddr: "10.0.0.2:1234",
			headers: map[string]string{
				"CF-Connecting-IP": "2001:db8::1",
				"X-Forwarded-For":  "198.51.100.1",
			},
			want: "2001:db8::1",
		},
		{
			name:       "custom header list",
			cfg:        clientip.Config{TrustProxy: true, Headers: []string{"X-Client"}},
			remoteAddr: "10.0.0.2:1234",
			headers: map[string]string{
				"X-Client":        "192.0.2.9",
				"X-Forwarded-For": "198.51.100.1",
			},
			want: "192.0.2.9",
		},
		{
			name:       "invalid headers fall back",
			cfg:        clientip.Config{TrustProxy: true},
			remoteAddr: "10.0.0.2:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.2",
		},
		{
			name:       "mapped ipv4",
			remoteAddr: "[::ffff:192.0.2.1]:80",
			want:       "192.0.2.1",
		},
		{
			name:       "garbage remote addr",
			remoteAddr: "pipe",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(tt.cfg).IP(r))
		})
	}
}

func TestMiddlewareAndLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(clientip.LoggerExtractor()),
	)

	var seen string
	h := clientip.New(clientip.Config{}).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
		log.InfoContext(r.Context(), "hello")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.44:4000"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.44", seen)
	assert.Contains(t, buf.String(), `"client_ip":"192.0.2.44"`)
	assert.Empty(t, clientip.FromContext(context.Background()))
}
