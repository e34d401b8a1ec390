// Package client is the request pipeline: the single chokepoint every backend
// call goes through.
//
// Outbound it attaches the bearer token, forces the JSON content type and
// stamps request/trace ids. Inbound it unwraps the optional response
// envelope, turns non-zero envelope codes and transport failures into
// *apperror.AppError, clears the session token on a 401 (except for the login
// call itself) and reports every failure to the Notifier exactly once.
// Callers receive either the unwrapped payload or an error, never the
// envelope.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"spareparts/internal/core/apperror"
	appctx "spareparts/internal/core/context"
	"spareparts/internal/core/token"
	"spareparts/pkg/logger"
)

var tracer = otel.Tracer("spareparts/http/client")

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api"
	// DefaultLoginPath is the auth endpoint whose 401s never clear the token.
	DefaultLoginPath = "/auth/login/"
)

// Config configures the pipeline.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	LoginPath string
}

// Client is the request pipeline.
type Client struct {
	baseURL   string
	origin    string
	http      *http.Client
	tokens    *token.Holder
	notifier  Notifier
	loginPath string
	log       *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates the pipeline. tokens is the session context shared with the
// session store.
func New(cfg Config, tokens *token.Holder, notifier Notifier, log *logger.Logger, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token holder cannot be nil")
	}
	if log == nil {
		log = logger.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	origin, err := originOf(base)
	if err != nil {
		return nil, err
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	// Session cookies travel with every call, like credentialed CORS requests.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(base, "/"),
		origin:  origin,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		tokens:    tokens,
		notifier:  notifier,
		loginPath: loginPath,
		log:       log.WithComponent("http_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   Body
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body Body) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body Body) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do runs req through the pipeline.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, rt := appctx.ForRequest(ctx)
	ctx, span := tracer.Start(ctx, req.Method+" "+req.Path,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.String("request.id", rt.RequestID),
		),
	)
	defer span.End()

	start := time.Now()
	data, status, err := c.roundTrip(ctx, req, rt)
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	log := c.log.WithContext(ctx).With(
		"method", req.Method,
		"path", req.Path,
		"status", status,
		"duration", time.Since(start),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warnw("backend call failed", "error", err)
		c.report(ctx, err)
		return nil, err
	}
	log.Debugw("backend call")
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, rt *appctx.TraceContext) (json.RawMessage, int, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ContentTypeJSON
	if req.Body != nil {
		var err error
		body, contentType, err = req.Body.Encode()
		if err != nil {
			return nil, 0, apperror.NewValidation(err.Error()).WithCause(err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, 0, apperror.NewNetwork(err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", ContentTypeJSON)
	httpReq.Header.Set(HeaderRequestID, rt.RequestID)
	httpReq.Header.Set(HeaderTraceID, rt.TraceID)

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		// Unreadable storage behaves like an anonymous call.
		c.log.WithContext(ctx).Warnw("cannot read session token", "error", err)
	}
	if tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, apperror.NewNetwork(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, apperror.NewNetwork(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperror.NewHTTPStatus(resp.StatusCode)
		if env, ok := parseEnvelope(raw); ok {
			if detail := env.serverDetail(); detail != "" {
				appErr.WithDetail("detail", detail)
			}
		}
		if resp.StatusCode == http.StatusUnauthorized && !c.isLogin(req.Path) {
			if err := c.tokens.Clear(ctx); err != nil {
				c.log.WithContext(ctx).Warnw("cannot clear session token", "error", err)
			}
		}
		return nil, resp.StatusCode, appErr
	}

	if env, ok := parseEnvelope(raw); ok && env.failed() {
		return nil, resp.StatusCode, apperror.NewApplication(env.message(), resp.StatusCode)
	}
	return unwrap(raw), resp.StatusCode, nil
}

// report emits the one user-facing notification for a failed call. Calls the
// caller abandoned on purpose are not reported.
func (c *Client) report(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.notifier.Notify(ctx, err.Error())
}

func (c *Client) isLogin(path string) bool {
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(c.loginPath, "/")
}

func originOf(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		// Relative base (served behind the same origin).
		return "", nil
	}
	return u.Scheme + "://" + u.Host, nil
}
