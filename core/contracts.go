package core

import (
	"context"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Record is one JSON object as produced by the Deliverect API or a webhook.
type Record = map[string]any

type TransportRequest struct {
	Method   string
	URL      string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// WebhookEnvelope is one inbound delivery. RawBody is nil when the
// receiving transport did not retain the exact bytes.
type WebhookEnvelope struct {
	Headers map[string]string
	RawBody []byte
	Body    map[string]any
}

// Header performs a case-insensitive header lookup.
func (e WebhookEnvelope) Header(name string) string {
	if len(e.Headers) == 0 {
		return ""
	}
	if value, ok := e.Headers[name]; ok {
		return value
	}
	for key, value := range e.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// FlattenHeaders keeps the first value of every header.
func FlattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	return out
}

type Credentials struct {
	Domain        string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
}

type CredentialStore interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// WebhookSecretProvider is consulted once per webhook delivery.
type WebhookSecretProvider interface {
	WebhookSecret(ctx context.Context) (string, error)
}

type WebhookSecretFunc func(ctx context.Context) (string, error)

func (f WebhookSecretFunc) WebhookSecret(ctx context.Context) (string, error) {
	return f(ctx)
}

// OperationRequest names one catalog operation and its parameters.
type OperationRequest struct {
	Resource  string         `json:"resource"`
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params,omitempty"`
}

// OperationDescriptor is the public shape of a catalog operation.
type OperationDescriptor struct {
	Resource    string `json:"resource"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Paginated   bool   `json:"paginated"`
	Internal    bool   `json:"internal"`
}

type TokenSource interface {
	Token(ctx context.Context, creds Credentials) (string, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
