package fetch

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/net/http/httpproxy"
)

// ProxyResolver picks the transport for a target URL. A nil result means no proxy applies.
type ProxyResolver interface {
	AgentFor(target *url.URL) http.RoundTripper
}

// ProxyResolverFunc adapts a function to ProxyResolver
type ProxyResolverFunc func(target *url.URL) http.RoundTripper

// AgentFor implements ProxyResolver
func (f ProxyResolverFunc) AgentFor(target *url.URL) http.RoundTripper {
	return f(target)
}

// NoProxyResolver never routes through a proxy
type NoProxyResolver struct{}

// AgentFor implements ProxyResolver
func (NoProxyResolver) AgentFor(*url.URL) http.RoundTripper {
	return nil
}

// EnvProxyResolver selects proxies with HTTP_PROXY / HTTPS_PROXY / NO_PROXY semantics and
// keeps one pooled transport per proxy URL.
type EnvProxyResolver struct {
	proxyFunc func(*url.URL) (*url.URL, error)

	mu     sync.Mutex
	agents map[string]*http.Transport
}

// NewEnvProxyResolver creates a resolver from the process environment
func NewEnvProxyResolver() *EnvProxyResolver {
	return NewProxyResolver(*httpproxy.FromEnvironment())
}

// NewProxyResolver creates a resolver from explicit proxy settings
func NewProxyResolver(cfg httpproxy.Config) *EnvProxyResolver {
	return &EnvProxyResolver{
		proxyFunc: cfg.ProxyFunc(),
		agents:    make(map[string]*http.Transport),
	}
}

// AgentFor returns the shared transport for the proxy that applies to target, or nil
func (r *EnvProxyResolver) AgentFor(target *url.URL) http.RoundTripper {
	proxyURL, err := r.proxyFunc(target)
	if err != nil || proxyURL == nil {
		return nil
	}

	key := proxyURL.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if agent, ok := r.agents[key]; ok {
		return agent
	}

	agent := cleanhttp.DefaultPooledTransport()
	agent.Proxy = http.ProxyURL(proxyURL)
	r.agents[key] = agent
	return agent
}

// newBaseTransport returns the direct transport used when no proxy applies
func newBaseTransport() *http.Transport {
	transport := cleanhttp.DefaultPooledTransport()
	transport.Proxy = nil
	return transport
}
