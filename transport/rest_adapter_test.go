package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/ratelimit"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

func TestRESTAdapter_SendsHeadersQueryAndBody(t *testing.T) {
	var gotMethod, gotAuth, gotContentType, gotQuery, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query().Get("where")
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.Header().Set("X-Trace", "t1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:  "post",
		URL:     server.URL + "/products",
		Headers: map[string]string{"Authorization": "Bearer tok"},
		Query:   map[string]string{"where": `{"account":"a1"}`},
		Body:    []byte(`{"plu":"P1"}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %q", gotMethod)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
	if gotQuery != `{"account":"a1"}` {
		t.Fatalf("expected where query, got %q", gotQuery)
	}
	if gotBody != `{"plu":"P1"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if res.StatusCode != http.StatusCreated || res.Headers["X-Trace"] != "t1" || string(res.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response %#v", res)
	}
}

func TestRESTAdapter_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), WithMaxResponseBodyBytes(4))

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatalf("expected response body limit error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorUpstreamRequestFailed {
		t.Fatalf("expected %q text code, got %q", core.ErrorUpstreamRequestFailed, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTAdapter_NilReturnsRichError(t *testing.T) {
	var adapter *RESTAdapter
	_, err := adapter.Do(context.Background(), core.TransportRequest{})
	if !core.IsKind(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRESTAdapter_RateLimitHonorsContext(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), WithRateLimit(0.001, 1))
	if _, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := adapter.Do(ctx, core.TransportRequest{URL: server.URL})
	if !core.IsKind(err, core.ErrorRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected throttled call to never reach the server, got %d calls", calls)
	}
}

func TestNewRESTAdapterFromConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.HTTP.RequestsPerSecond = 5
	cfg.HTTP.Burst = 2
	adapter := NewRESTAdapterFromConfig(cfg, nil)
	if adapter.Limiter == nil || adapter.Limiter.Burst() != 2 {
		t.Fatalf("expected configured limiter")
	}
	client, ok := adapter.Client.(*http.Client)
	if !ok || client.Timeout != core.DefaultHTTPTimeout {
		t.Fatalf("expected client with configured timeout")
	}
	if NewRESTAdapterFromConfig(core.DefaultConfig(), nil).Limiter != nil {
		t.Fatalf("expected no limiter when rps is zero")
	}
	if adapter.Throttle != nil {
		t.Fatalf("expected no throttle unless honor_rate_limit is set")
	}
	cfg.HTTP.HonorRateLimit = true
	if NewRESTAdapterFromConfig(cfg, nil).Throttle == nil {
		t.Fatalf("expected throttle when honor_rate_limit is set")
	}
}

func TestRESTAdapter_ThrottleAfterTooManyRequests(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client(), WithThrottle(ratelimit.NewAdaptivePolicy(ratelimit.NewMemoryStateStore())))
	res, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL + "/stores"})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected upstream 429 returned, got %d", res.StatusCode)
	}

	_, err = adapter.Do(context.Background(), core.TransportRequest{URL: server.URL + "/stores"})
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich throttle error, got %T", err)
	}
	if richErr.TextCode != core.ErrorRateLimited || richErr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected throttle error %s/%d", richErr.TextCode, richErr.Code)
	}
	if calls != 1 {
		t.Fatalf("expected cooling host to be skipped, got %d calls", calls)
	}
}

func TestRESTAdapter_LogsThrottleStateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	logger := &debugLogger{}
	adapter := NewRESTAdapter(server.Client(),
		WithThrottle(failingThrottle{err: errors.New("state store down")}),
		WithRESTLogger(logger),
	)
	res, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL + "/stores"})
	if err != nil {
		t.Fatalf("expected response despite throttle bookkeeping failure, got %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if logger.msg != "deliverect rate limit state not recorded" {
		t.Fatalf("expected debug log for throttle failure, got %q", logger.msg)
	}
	found := false
	for i := 0; i+1 < len(logger.args); i += 2 {
		if logger.args[i] == "error" && logger.args[i+1] == "state store down" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error field in %#v", logger.args)
	}
}

type failingThrottle struct {
	err error
}

func (failingThrottle) BeforeCall(context.Context, string) error { return nil }

func (f failingThrottle) AfterCall(context.Context, string, int, map[string]string) error {
	return f.err
}

type debugLogger struct {
	msg  string
	args []any
}

func (l *debugLogger) Trace(string, ...any) {}
func (l *debugLogger) Info(string, ...any)  {}
func (l *debugLogger) Warn(string, ...any)  {}
func (l *debugLogger) Error(string, ...any) {}
func (l *debugLogger) Fatal(string, ...any) {}

func (l *debugLogger) Debug(msg string, args ...any) {
	l.msg = msg
	l.args = append([]any(nil), args...)
}

func (l *debugLogger) WithContext(context.Context) glog.Logger { return l }
