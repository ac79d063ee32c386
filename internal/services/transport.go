package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/shared"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "socially/0.1"

// Request describes one provider API call.
//
// Provider is used only for logging and metrics labels.
type Request struct {
	Provider string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
}

// Response is a fully read provider response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a [Request] and returns the status and body.
//
// Implementations report failures that happen before a response exists as [shared.ErrTransport]
// and requests that cannot be built as [shared.ErrMalformedRequest]. Non-2xx statuses are not errors at this layer.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to [Transport].
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// TransportOpts configures [NewHTTPTransport].
type TransportOpts struct {
	Client            *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables rate limiting
	Burst             int
	UserAgent         string
	Metrics           *Metrics
	Logger            *log.Logger
}

// HTTPTransport is the net/http [Transport] with client-side rate limiting, request metrics and debug logging.
type HTTPTransport struct {
	client    *http.Client
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *log.Logger
	userAgent string
}

// NewHTTPTransport creates an [HTTPTransport] from opts.
func NewHTTPTransport(opts TransportOpts) *HTTPTransport {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DefaultLogger()
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &HTTPTransport{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   opts.Metrics,
		logger:    logger,
		userAgent: ua,
	}
}

// Send waits for the rate limiter, performs the request and reads the whole body.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrTransport, err)
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedRequest, err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.metrics.observeRequest(req.Provider, req.Method, 0, time.Since(start))
		t.logger.Debug("provider request failed", "provider", req.Provider, "method", req.Method, "url", req.URL, "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	t.metrics.observeRequest(req.Provider, req.Method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", shared.ErrTransport, err)
	}

	t.logger.Debug("provider request",
		"provider", req.Provider,
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", elapsed,
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
