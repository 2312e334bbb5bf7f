package fetch

import (
	"net/http"
	"time"
)

// Transform post-processes a decoded 2xx body. Returning a nil value keeps the decoded
// body; returning an error fails the attempt and goes through classification.
type Transform func(body any, env *Envelope) (any, error)

// Options describes one logical request. It starts from the client defaults and is
// adjusted by RequestOptions.
type Options struct {
	// Method is the HTTP verb, GET when empty
	Method string

	// Headers are sent on every attempt and override the client defaults
	Headers map[string]string

	// Body is sent as is when it is a string or []byte, otherwise serialized to JSON
	Body any

	// Agent bypasses proxy resolution and the client's base transport
	Agent http.RoundTripper

	// Buffer keeps the response body as raw bytes instead of decoding it
	Buffer bool

	// Retries is the number of attempts allowed after the first one
	Retries int

	// Interval is the wait between attempts
	Interval time.Duration

	// RetryNotFound also retries 404 responses
	RetryNotFound bool

	// NoProxy skips proxy resolution
	NoProxy bool

	// Transform post-processes successful responses
	Transform Transform
}

// RequestOption adjusts the Options of a single request
type RequestOption func(*Options)

// WithMethod sets the HTTP method
func WithMethod(method string) RequestOption {
	return func(o *Options) {
		o.Method = method
	}
}

// WithHeader sets a single request header
func WithHeader(key, value string) RequestOption {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// WithHeaders merges headers into the request headers
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}

// WithBody sets the request body
func WithBody(body any) RequestOption {
	return func(o *Options) {
		o.Body = body
	}
}

// WithAgent routes the request through rt regardless of proxy settings
func WithAgent(rt http.RoundTripper) RequestOption {
	return func(o *Options) {
		o.Agent = rt
	}
}

// WithBuffer keeps the response body as raw bytes
func WithBuffer(buffer bool) RequestOption {
	return func(o *Options) {
		o.Buffer = buffer
	}
}

// WithRetries overrides the retry budget
func WithRetries(retries int) RequestOption {
	return func(o *Options) {
		o.Retries = retries
	}
}

// WithInterval overrides the wait between attempts
func WithInterval(interval time.Duration) RequestOption {
	return func(o *Options) {
		o.Interval = interval
	}
}

// WithRetryNotFound toggles retrying 404 responses
func WithRetryNotFound(enabled bool) RequestOption {
	return func(o *Options) {
		o.RetryNotFound = enabled
	}
}

// WithNoProxy toggles proxy resolution off
func WithNoProxy(noProxy bool) RequestOption {
	return func(o *Options) {
		o.NoProxy = noProxy
	}
}

// WithTransform sets the success transform
func WithTransform(fn Transform) RequestOption {
	return func(o *Options) {
		o.Transform = fn
	}
}
