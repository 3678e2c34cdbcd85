// Package transporttest provides a scripted TransportAdapter for tests that
// need canned Deliverect responses without a network.
package transporttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/goliatone/go-deliverect/core"
)

type Script struct {
	Response core.TransportResponse
	Err      error
}

// JSON scripts a response with payload encoded as the body.
func JSON(status int, payload any) Script {
	body, err := json.Marshal(payload)
	if err != nil {
		return Script{Err: fmt.Errorf("transporttest: encode payload: %w", err)}
	}
	return Script{Response: core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}}
}

func Failure(err error) Script {
	return Script{Err: err}
}

// Adapter replays scripts in order, repeating the last one once exhausted,
// and records every request it sees.
type Adapter struct {
	mu       sync.Mutex
	scripts  []Script
	requests []core.TransportRequest
}

func NewAdapter(scripts ...Script) *Adapter {
	return &Adapter{scripts: append([]Script(nil), scripts...)}
}

func (*Adapter) Kind() string {
	return "scripted"
}

func (a *Adapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("transporttest: adapter is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneRequest(req))
	index := len(a.requests) - 1
	if index < len(a.scripts) {
		script := a.scripts[index]
		return cloneResponse(script.Response), script.Err
	}
	if len(a.scripts) > 0 {
		last := a.scripts[len(a.scripts)-1]
		return cloneResponse(last.Response), last.Err
	}
	return core.TransportResponse{StatusCode: http.StatusOK, Headers: map[string]string{}}, nil
}

func (a *Adapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneRequest(item))
	}
	return out
}

func cloneRequest(in core.TransportRequest) core.TransportRequest {
	out := core.TransportRequest{
		Method:   in.Method,
		URL:      in.URL,
		Headers:  map[string]string{},
		Query:    map[string]string{},
		Body:     append([]byte(nil), in.Body...),
		Metadata: map[string]any{},
		Timeout:  in.Timeout,
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Query {
		out.Query[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneResponse(in core.TransportResponse) core.TransportResponse {
	out := core.TransportResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
		Metadata:   map[string]any{},
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*Adapter)(nil)
