package scoring

import (
	"context"
	"net"
	"net/http"
	"strings"

	"finhealth/internal/config"
)

type endpointKey struct{}

// WithEndpoint stores the resolved scoring base URL in ctx
func WithEndpoint(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, endpointKey{}, base)
}

// EndpointFromContext returns the base URL stored by WithEndpoint
func EndpointFromContext(ctx context.Context) (string, bool) {
	base, ok := ctx.Value(endpointKey{}).(string)
	return base, ok && base != ""
}

// Resolver picks the scoring base URL: the configured override, the development
// endpoint for pages served from a loopback host, then the page's own origin.
type Resolver struct {
	baseURL    string
	devBaseURL string
}

// NewResolver creates a resolver from the scoring configuration
func NewResolver(cfg config.ScoringConfig) *Resolver {
	dev := strings.TrimRight(cfg.DevBaseURL, "/")
	if dev == "" {
		dev = config.DefaultDevBaseURL
	}
	return &Resolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		devBaseURL: dev,
	}
}

// ForRequest resolves the base URL for a page request
func (r *Resolver) ForRequest(req *http.Request) string {
	if r.baseURL != "" {
		return r.baseURL
	}
	if IsLoopbackHost(req.Host) {
		return r.devBaseURL
	}
	return requestOrigin(req)
}

// Default is the base URL used when no page request is in scope
func (r *Resolver) Default() string {
	if r.baseURL != "" {
		return r.baseURL
	}
	return r.devBaseURL
}

// FromContext returns the endpoint stored in ctx, falling back to Default
func (r *Resolver) FromContext(ctx context.Context) string {
	if base, ok := EndpointFromContext(ctx); ok {
		return base
	}
	return r.Default()
}

// Middleware stores the endpoint resolved for each request in its context
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := WithEndpoint(req.Context(), r.ForRequest(req))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// IsLoopbackHost reports whether a host (with or without port) names the local machine
func IsLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func requestOrigin(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + req.Host
}
