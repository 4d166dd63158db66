// Package rest is a typed client for Kraken's spot REST API.
//
// Public endpoints are plain GETs. Private endpoints are POSTs signed with the
// account's API secret: every call draws a fresh nonce, builds the body once
// and signs exactly those bytes.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
	"resty.dev/v3"

	"krakenkit/internal/circuitbreaker"
	khttp "krakenkit/internal/http"
	"krakenkit/internal/metrics"
	"krakenkit/internal/ratelimit"
	"krakenkit/pkg/auth"
	"krakenkit/pkg/core"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// jsonBody sorts object keys so that signed JSON bodies are reproducible.
var jsonBody = sonic.ConfigStd

// Client sends requests to the REST API. It is safe for concurrent use.
type Client struct {
	config  *core.Config
	http    *khttp.Client
	secrets auth.SecretsProvider
	nonce   auth.NonceProvider
	breaker *circuitbreaker.Breaker
	limiter *ratelimit.RateLimiter
	logger  zerolog.Logger
}

type Option func(*Client)

// WithSecrets sets the key pair source for private endpoints.
func WithSecrets(p auth.SecretsProvider) Option {
	return func(c *Client) { c.secrets = p }
}

// WithNonce replaces the default millisecond nonce provider.
func WithNonce(n auth.NonceProvider) Option {
	return func(c *Client) { c.nonce = n }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimiter admits every call through limiter before it is sent.
func WithRateLimiter(limiter *ratelimit.RateLimiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient creates a client. A nil config means core.DefaultConfig().
func NewClient(config *core.Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, &core.URLError{URL: config.BaseURL, Err: err}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		nonce:  auth.NewIncreasingNonce(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient, err := khttp.NewClient(&khttp.Config{
		BaseURL:   strings.TrimRight(config.BaseURL, "/"),
		Timeout:   config.Timeout,
		UserAgent: config.UserAgent,
	}, khttp.WithLogger(c.logger))
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	c.http = httpClient

	if config.CircuitBreakerEnabled {
		c.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		}, circuitbreaker.WithLogger(c.logger))
	}

	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *core.Config { return c.config }

// Breaker returns the circuit breaker, or nil when it is disabled.
func (c *Client) Breaker() *circuitbreaker.Breaker { return c.breaker }

func (c *Client) Close() error {
	return c.http.Close()
}

// Send admits, signs and dispatches req, returning the raw response of a 2xx reply.
func (c *Client) Send(ctx context.Context, req *core.Request) (*resty.Response, error) {
	var resp *resty.Response
	err := c.guard(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.send(ctx, req)
		return err
	})
	return resp, err
}

// Do sends req and decodes the result field of the response envelope into out.
// A non-empty error list becomes an *core.ExchangeError. out may be nil.
func (c *Client) Do(ctx context.Context, req *core.Request, out any) error {
	return c.guard(ctx, func(ctx context.Context) error {
		resp, err := c.send(ctx, req)
		if err != nil {
			return err
		}
		return c.decode(req, resp, out)
	})
}

func (c *Client) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}

func (c *Client) send(ctx context.Context, req *core.Request) (*resty.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, req); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var dispatch func() (*resty.Response, error)
	if req.RequireAuth {
		body, opts, err := c.signPrivate(ctx, req)
		if err != nil {
			metrics.RequestsTotal.WithLabelValues(req.Path, "error").Inc()
			return nil, err
		}
		dispatch = func() (*resty.Response, error) { return c.http.Post(ctx, req.Path, body, opts...) }
	} else {
		dispatch = func() (*resty.Response, error) { return c.http.Get(ctx, req.Path, c.publicOptions(req)...) }
	}

	start := time.Now()
	resp, err := dispatch()
	metrics.RequestLatency.WithLabelValues(req.Path).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, core.ErrClientClosed) {
			metrics.RequestsTotal.WithLabelValues(req.Path, "error").Inc()
			return nil, err
		}
		metrics.RequestsTotal.WithLabelValues(req.Path, "transport_error").Inc()
		return nil, &core.TransportError{Op: req.Method, URL: c.http.BaseURL() + req.Path, Err: err}
	}

	if !resp.IsSuccess() {
		metrics.RequestsTotal.WithLabelValues(req.Path, "http_error").Inc()
		return nil, &core.HTTPStatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	metrics.RequestsTotal.WithLabelValues(req.Path, "ok").Inc()
	return resp, nil
}

func (c *Client) publicOptions(req *core.Request) []khttp.RequestOption {
	query := make(map[string]string, len(req.Params))
	for k, v := range req.Params.Values() {
		query[k] = v[0]
	}
	return []khttp.RequestOption{
		khttp.WithQueryParams(query),
		khttp.WithHeaders(req.Headers),
	}
}

// signPrivate draws a nonce, encodes the body and returns it with the auth headers.
func (c *Client) signPrivate(ctx context.Context, req *core.Request) (string, []khttp.RequestOption, error) {
	if c.secrets == nil {
		return "", nil, core.ErrNoCredentials
	}
	secrets, err := c.secrets.Secrets(ctx)
	if err != nil {
		return "", nil, err
	}

	nonce := c.nonce.Next()
	body, contentType, err := encodeBody(req, nonce)
	if err != nil {
		return "", nil, err
	}

	sig, err := auth.Sign(nonce, secrets.Secret, req.Path, body)
	if err != nil {
		return "", nil, err
	}

	return sig.BodyData, []khttp.RequestOption{
		khttp.WithHeaders(req.Headers),
		khttp.WithHeader("Content-Type", contentType),
		khttp.WithHeader("API-Key", secrets.Key),
		khttp.WithHeader("API-Sign", sig.Signature),
	}, nil
}

// encodeBody renders the exact bytes that get signed and sent.
func encodeBody(req *core.Request, nonce uint64) (string, string, error) {
	if req.Encoding == core.EncodingJSON {
		payload := make(map[string]any, len(req.Params)+1)
		for k, v := range req.Params {
			payload[k] = v
		}
		payload["nonce"] = nonce
		data, err := jsonBody.Marshal(payload)
		if err != nil {
			return "", "", fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		return string(data), contentTypeJSON, nil
	}
	return req.EncodeForm(nonce), contentTypeForm, nil
}

// decode splits the {"error": [...], "result": ...} envelope.
func (c *Client) decode(req *core.Request, resp *resty.Response, out any) error {
	var parser fastjson.Parser
	val, err := parser.ParseBytes(resp.Bytes())
	if err != nil {
		return &core.DeserializationError{Context: req.Path + " envelope", Err: err}
	}

	var errs []string
	for _, item := range val.GetArray("error") {
		msg := string(item.GetStringBytes())
		if core.IsWarning(msg) {
			c.logger.Warn().Str("endpoint", req.Path).Str("warning", msg).Msg("kraken warning")
			continue
		}
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		return core.NewExchangeError(req.Path, resp.StatusCode(), errs)
	}

	if out == nil {
		return nil
	}
	result := val.Get("result")
	if result == nil || result.Type() == fastjson.TypeNull {
		return &core.DeserializationError{Context: req.Path + " result", Err: errors.New("missing result")}
	}
	if err := sonic.Unmarshal(result.MarshalTo(nil), out); err != nil {
		return &core.DeserializationError{Context: req.Path + " result", Err: err}
	}
	return nil
}
