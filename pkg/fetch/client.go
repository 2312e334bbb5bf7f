package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jzx17/gofetch/pkg/config"
	"github.com/jzx17/gofetch/pkg/retry"
	"github.com/jzx17/gofetch/pkg/types"
)

const (
	// DefaultTimeout bounds a single attempt
	DefaultTimeout = 30 * time.Second

	// HeaderXRequestID carries the id shared by every attempt of a logical request
	HeaderXRequestID = "X-Request-ID"

	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"

	tracerName = "github.com/jzx17/gofetch/pkg/fetch"
)

// Observer receives request metrics
type Observer interface {
	// ObserveAttempt is called after every attempt. statusCode is 0 and code is set
	// when the transport failed.
	ObserveAttempt(method string, statusCode int, code string, duration time.Duration)

	// ObserveRequest is called once per logical request
	ObserveRequest(method string, err error, duration time.Duration)
}

// Client issues HTTP requests with bounded retry and failure classification
type Client struct {
	base          http.RoundTripper
	resolver      ProxyResolver
	timeout       time.Duration
	headers       map[string]string
	userAgent     string
	retry         retry.Config
	retryNotFound bool
	limiter       *rate.Limiter
	logger        zerolog.Logger
	observer      Observer
	tracer        trace.Tracer
	clock         quartz.Clock
	events        retry.EventHandler
	requestID     func() string
}

// Option configures a Client
type Option func(*Client)

// NewClient creates a client with default settings: 5 retries 50ms apart, a 30s
// attempt timeout and proxies taken from the environment.
func NewClient(opts ...Option) *Client {
	c := &Client{
		base:      newBaseTransport(),
		resolver:  NewEnvProxyResolver(),
		timeout:   DefaultTimeout,
		headers:   make(map[string]string),
		retry:     retry.DefaultConfig(),
		logger:    zerolog.Nop(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		clock:     quartz.NewReal(),
		requestID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig creates a client from loaded settings. opts are applied afterwards.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{
		WithRetryConfig(cfg.RetryConfig()),
		WithDefaultRetryNotFound(cfg.RetryNotFound),
		WithTimeout(cfg.Timeout),
		WithUserAgent(cfg.UserAgent),
	}
	if cfg.NoProxy {
		base = append(base, WithProxyResolver(NoProxyResolver{}))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		base = append(base, WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}

	return NewClient(append(base, opts...)...)
}

// WithTransport sets the transport used when no proxy applies
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithProxyResolver sets the proxy resolution capability
func WithProxyResolver(resolver ProxyResolver) Option {
	return func(c *Client) {
		c.resolver = resolver
	}
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithDefaultHeader adds a header sent with every request
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithUserAgent sets the User-Agent sent unless a request overrides it
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the default retry budget and interval
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithDefaultRetryNotFound sets the default for retrying 404 responses
func WithDefaultRetryNotFound(retryNotFound bool) Option {
	return func(c *Client) {
		c.retryNotFound = retryNotFound
	}
}

// WithRateLimiter makes every attempt wait for a limiter token
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver sets the metrics observer
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithTracerProvider sets the tracer provider used for request spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock sets the clock used for retry waits
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRetryEventHandler adds a handler for retry events. Pass retry.NewLogEventHandler
// to log each retry decision.
func WithRetryEventHandler(handler retry.EventHandler) Option {
	return func(c *Client) {
		c.events = retry.EventHandlers(c.events, handler)
	}
}

// WithRequestIDGenerator replaces the X-Request-ID generator
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (any, error) {
	return c.Do(ctx, rawURL, withVerb(opts, WithMethod(http.MethodGet))...)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, rawURL string, body any, opts ...RequestOption) (any, error) {
	return c.Do(ctx, rawURL, withVerb(opts, WithMethod(http.MethodPost), WithBody(body))...)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, rawURL string, body any, opts ...RequestOption) (any, error) {
	return c.Do(ctx, rawURL, withVerb(opts, WithMethod(http.MethodPut), WithBody(body))...)
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, rawURL string, body any, opts ...RequestOption) (any, error) {
	return c.Do(ctx, rawURL, withVerb(opts, WithMethod(http.MethodPatch), WithBody(body))...)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, rawURL string, opts ...RequestOption) (any, error) {
	return c.Do(ctx, rawURL, withVerb(opts, WithMethod(http.MethodDelete))...)
}

// withVerb appends the helper's options to a copy of opts so that callers may share
// one option slice between concurrent requests
func withVerb(opts []RequestOption, verb ...RequestOption) []RequestOption {
	return slices.Concat(opts, verb)
}

// Do sends a request and retries it while failures classify as retryable.
//
// On a 2xx response it returns the transform result, or the decoded body when there is
// no transform or the transform returns nil. Otherwise it returns a *Error from the
// last attempt.
func (c *Client) Do(ctx context.Context, rawURL string, opts ...RequestOption) (any, error) {
	target, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	o := Options{
		Method:        http.MethodGet,
		Retries:       c.retry.Retries,
		Interval:      c.retry.Interval,
		RetryNotFound: c.retryNotFound,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Method == "" {
		o.Method = http.MethodGet
	}

	p, err := c.prepare(target, &o)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+p.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", p.method),
			attribute.String("url.full", p.url),
			attribute.String("http.request.id", p.requestID),
		))
	defer span.End()

	cfg := retry.Config{Retries: o.Retries, Interval: o.Interval}
	executor := retry.NewRetryExecutor(cfg,
		retry.WithClock(c.clock),
		retry.WithEventHandler(c.events))

	start := c.clock.Now("fetch", "request")
	result, err := retry.Execute(executor, ctx, func(ctx context.Context, attempt int) retry.Outcome[any] {
		return c.attempt(ctx, attempt, p, &o)
	})
	elapsed := c.clock.Since(start, "fetch", "request")

	attempts := executor.GetStats().TotalAttempts
	span.SetAttributes(attribute.Int64("http.request.attempts", attempts))
	if c.observer != nil {
		c.observer.ObserveRequest(p.method, err, elapsed)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().
			Str("method", p.method).
			Str("url", p.url).
			Str("request_id", p.requestID).
			Int64("attempts", attempts).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("Request failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

// prepare normalizes the body, headers and transport once per logical request
func (c *Client) prepare(target *url.URL, o *Options) (*preparedRequest, error) {
	body, isJSON, err := encodeBody(o.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	header := make(http.Header)
	for k, v := range c.headers {
		header.Set(k, v)
	}
	if c.userAgent != "" {
		header.Set(headerUserAgent, c.userAgent)
	}
	for k, v := range o.Headers {
		header.Set(k, v)
	}
	if isJSON && header.Get(headerContentType) == "" {
		header.Set(headerContentType, contentTypeJSON)
	}

	requestID := header.Get(HeaderXRequestID)
	if requestID == "" {
		requestID = c.requestID()
		header.Set(HeaderXRequestID, requestID)
	}

	return &preparedRequest{
		method:    o.Method,
		url:       target.String(),
		header:    header,
		body:      body,
		transport: c.agentFor(target, o),
		buffer:    o.Buffer,
		requestID: requestID,
	}, nil
}

// agentFor picks the transport: explicit agent, then proxy, then the base transport
func (c *Client) agentFor(target *url.URL, o *Options) http.RoundTripper {
	if o.Agent != nil {
		return o.Agent
	}
	if !o.NoProxy && c.resolver != nil {
		if agent := c.resolver.AgentFor(target); agent != nil {
			return agent
		}
	}
	return c.base
}

// attempt runs one round trip and classifies its result
func (c *Client) attempt(ctx context.Context, attempt int, p *preparedRequest, o *Options) retry.Outcome[any] {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Terminal[any](err)
		}
	}

	c.logRequest(p, attempt)

	start := c.clock.Now("fetch", "attempt")
	env, err := roundTrip(ctx, p, c.timeout)
	elapsed := c.clock.Since(start, "fetch", "attempt")

	if err != nil {
		ferr := newTransportError(err)
		c.recordAttempt(ctx, p, attempt, 0, ferr.Code, elapsed)
		return outcomeOf(ferr)
	}

	c.recordAttempt(ctx, p, attempt, env.StatusCode, "", elapsed)
	c.logResponse(p, attempt, env, elapsed)

	if !IsSuccessStatus(env.StatusCode) {
		return outcomeOf(newStatusError(env, o.RetryNotFound, nil))
	}

	if o.Transform == nil {
		return retry.Success(env.Body)
	}

	value, err := applyTransform(o.Transform, env)
	if err != nil {
		return outcomeOf(newStatusError(env, o.RetryNotFound, err))
	}
	if value == nil {
		return retry.Success(env.Body)
	}
	return retry.Success(value)
}

func outcomeOf(err *Error) retry.Outcome[any] {
	if err.Retryable {
		return retry.Retryable[any](err)
	}
	return retry.Terminal[any](err)
}

// applyTransform calls fn, turning a panic into an error
func applyTransform(fn Transform, env *Envelope) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			value = nil
			err = types.NewPanicError(r, buf[:n])
		}
	}()

	return fn(env.Body, env)
}

// encodeBody turns the request body into bytes. Only values that are not already
// text are serialized, and only those report isJSON.
func encodeBody(body any) (data []byte, isJSON bool, err error) {
	switch v := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), false, nil
	case []byte:
		return v, false, nil
	default:
		data, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}

// parseURL validates that rawURL names an absolute target
func parseURL(rawURL string) (*url.URL, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidURL, rawURL)
	}
	return target, nil
}

func (c *Client) recordAttempt(ctx context.Context, p *preparedRequest, attempt, status int, code string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{attribute.Int("attempt", attempt)}
	if status != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}
	if code != "" {
		attrs = append(attrs, attribute.String("error.code", code))
	}
	trace.SpanFromContext(ctx).AddEvent("attempt", trace.WithAttributes(attrs...))

	if c.observer != nil {
		c.observer.ObserveAttempt(p.method, status, code, elapsed)
	}
}

// logRequest logs the outgoing request
func (c *Client) logRequest(p *preparedRequest, attempt int) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", p.method).
		Str("url", p.url).
		Str("request_id", p.requestID).
		Int("attempt", attempt)

	if len(p.body) > 0 {
		logEvent.Int("body_bytes", len(p.body))
	}

	logEvent.Msg("HTTP client request")
}

// logResponse logs the incoming response
func (c *Client) logResponse(p *preparedRequest, attempt int, env *Envelope, elapsed time.Duration) {
	c.logger.Debug().
		Str("direction", "inbound").
		Str("request_id", p.requestID).
		Int("attempt", attempt).
		Int("status", env.StatusCode).
		Dur("elapsed", elapsed).
		Int("body_bytes", len(env.Raw)).
		Msg("HTTP client response")
}
