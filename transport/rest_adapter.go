package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/ratelimit"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/time/rate"
)

const KindREST = "rest"

const defaultRESTClientTimeout = 30 * time.Second
const defaultRESTResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter executes JSON requests against the Deliverect REST API. It
// performs exactly one HTTP call per Do and never retries.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
	// Limiter, when set, is waited on before every request.
	Limiter *rate.Limiter
	// Throttle, when set, is consulted per host before and after each call.
	Throttle ThrottlePolicy
	Logger   core.Logger
}

type ThrottlePolicy interface {
	BeforeCall(ctx context.Context, host string) error
	AfterCall(ctx context.Context, host string, statusCode int, headers map[string]string) error
}

type RESTOption func(*RESTAdapter)

// WithRateLimit throttles outbound calls to rps with the given burst.
func WithRateLimit(rps float64, burst int) RESTOption {
	return func(a *RESTAdapter) {
		if rps <= 0 {
			a.Limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		a.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithThrottle(policy ThrottlePolicy) RESTOption {
	return func(a *RESTAdapter) {
		a.Throttle = policy
	}
}

func WithRESTLogger(logger core.Logger) RESTOption {
	return func(a *RESTAdapter) {
		if logger != nil {
			a.Logger = logger
		}
	}
}

func WithDefaultHeader(key string, value string) RESTOption {
	return func(a *RESTAdapter) {
		a.DefaultHeaders[key] = value
	}
}

func WithMaxResponseBodyBytes(limit int64) RESTOption {
	return func(a *RESTAdapter) {
		a.MaxResponseBodyBytes = limit
	}
}

func NewRESTAdapter(client HTTPDoer, options ...RESTOption) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	adapter := &RESTAdapter{
		Client: client,
		DefaultHeaders: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
		Logger:               glog.Nop(),
	}
	for _, option := range options {
		if option != nil {
			option(adapter)
		}
	}
	return adapter
}

// NewRESTAdapterFromConfig builds an adapter honoring http.* settings.
func NewRESTAdapterFromConfig(cfg core.Config, client HTTPDoer, extra ...RESTOption) *RESTAdapter {
	if client == nil {
		timeout := cfg.HTTP.Timeout
		if timeout <= 0 {
			timeout = defaultRESTClientTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	options := []RESTOption{WithRateLimit(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)}
	if cfg.HTTP.HonorRateLimit {
		options = append(options, WithThrottle(ratelimit.NewAdaptivePolicy(ratelimit.NewMemoryStateStore())))
	}
	return NewRESTAdapter(client, append(options, extra...)...)
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindREST},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	parsedURL, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			map[string]any{"adapter": KindREST, "url": strings.TrimSpace(req.URL)},
		)
	}
	if parsedURL.String() == "" {
		return core.TransportResponse{}, transportError(
			"transport: request url is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"adapter": KindREST},
		)
	}

	query := parsedURL.Query()
	for key, value := range req.Query {
		if strings.TrimSpace(key) == "" {
			continue
		}
		query.Set(strings.TrimSpace(key), value)
	}
	parsedURL.RawQuery = query.Encode()

	requestCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	if a.Throttle != nil {
		if err := a.Throttle.BeforeCall(requestCtx, parsedURL.Host); err != nil {
			return core.TransportResponse{}, throttleError(err, method, parsedURL.Path)
		}
	}
	if a.Limiter != nil {
		if err := a.Limiter.Wait(requestCtx); err != nil {
			return core.TransportResponse{}, transportWrapError(
				err,
				goerrors.CategoryRateLimit,
				"transport: rate limit wait interrupted",
				http.StatusTooManyRequests,
				map[string]any{"adapter": KindREST, "method": method, "path": parsedURL.Path},
			)
		}
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, method, parsedURL.String(), body)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"adapter": KindREST, "method": method, "path": parsedURL.Path},
		)
	}
	for key, value := range a.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	startedAt := time.Now().UTC()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"adapter": KindREST, "method": method, "path": parsedURL.Path},
		)
	}
	defer httpRes.Body.Close()
	headers := flattenHeaders(httpRes.Header)
	if a.Throttle != nil {
		if err := a.Throttle.AfterCall(requestCtx, parsedURL.Host, httpRes.StatusCode, headers); err != nil {
			a.logger().Debug("deliverect rate limit state not recorded",
				"host", parsedURL.Host,
				"status_code", httpRes.StatusCode,
				"error", err.Error(),
			)
		}
	}

	maxBodyBytes := a.MaxResponseBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultRESTResponseBodyLimit
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes+1))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"adapter": KindREST, "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(payload)) > maxBodyBytes {
		return core.TransportResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", maxBodyBytes),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{
				"adapter":          KindREST,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": maxBodyBytes,
			},
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    headers,
		Body:       payload,
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"kind":        KindREST,
		},
	}, nil
}

func (a *RESTAdapter) logger() core.Logger {
	return glog.Ensure(a.Logger)
}

func throttleError(err error, method string, path string) error {
	var throttled ratelimit.ThrottledError
	if errors.As(err, &throttled) {
		return throttled.ToServiceError()
	}
	return transportWrapError(
		err,
		goerrors.CategoryInternal,
		"transport: rate limit state unavailable",
		http.StatusInternalServerError,
		map[string]any{"adapter": KindREST, "method": method, "path": path},
	)
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
