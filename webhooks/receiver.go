package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-deliverect/core"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const (
	RequestIDHeader   = "X-Request-Id"
	ErrorCodeDraining = "DELIVERECT_RECEIVER_DRAINING"
)

type ResponseMode string

const (
	// ResponseModeImmediate acknowledges the delivery before the sink runs.
	ResponseModeImmediate ResponseMode = core.WebhookResponseImmediate
	// ResponseModeLastNode waits for the sink and reports its failure.
	ResponseModeLastNode ResponseMode = core.WebhookResponseLastNode
)

// EnvelopeHandler is satisfied by *Handler and by services that wrap it.
type EnvelopeHandler interface {
	Handle(ctx context.Context, envelope core.WebhookEnvelope) (ClassifiedEvent, error)
}

// EventSink receives accepted events.
type EventSink interface {
	Deliver(ctx context.Context, event ClassifiedEvent) error
}

type EventSinkFunc func(ctx context.Context, event ClassifiedEvent) error

func (f EventSinkFunc) Deliver(ctx context.Context, event ClassifiedEvent) error {
	return f(ctx, event)
}

type ReceiverConfig struct {
	Path         string
	MaxBodyBytes int64
	ResponseMode ResponseMode
}

func ReceiverConfigFrom(cfg core.Config) ReceiverConfig {
	return ReceiverConfig{
		Path:         cfg.Webhook.Path,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		ResponseMode: ResponseMode(cfg.Webhook.ResponseMode),
	}
}

// Receiver adapts an EnvelopeHandler to net/http.
type Receiver struct {
	handler EnvelopeHandler
	sink    EventSink
	config  ReceiverConfig
	logger  core.Logger

	mu       sync.Mutex
	draining bool
	pending  sync.WaitGroup
}

type ReceiverOption func(*Receiver)

func WithReceiverLogger(logger core.Logger) ReceiverOption {
	return func(r *Receiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithReceiverConfig(cfg ReceiverConfig) ReceiverOption {
	return func(r *Receiver) {
		r.config = cfg
	}
}

func NewReceiver(handler EnvelopeHandler, sink EventSink, options ...ReceiverOption) *Receiver {
	receiver := &Receiver{
		handler: handler,
		sink:    sink,
		logger:  glog.Nop(),
	}
	for _, option := range options {
		if option != nil {
			option(receiver)
		}
	}
	return receiver
}

func (r *Receiver) Path() string {
	if path := strings.TrimSpace(r.config.Path); path != "" {
		return path
	}
	return core.DefaultWebhookPath
}

// Wait blocks until every sink call started in immediate mode has returned.
// Deliveries arriving after Wait or Drain started are refused with 503.
func (r *Receiver) Wait() {
	r.stopAccepting()
	r.pending.Wait()
}

func (r *Receiver) stopAccepting() {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()
}

// track registers one async sink call unless the receiver is draining.
func (r *Receiver) track() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return false
	}
	r.pending.Add(1)
	return true
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	requestID := strings.TrimSpace(req.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	logger := r.logger.WithContext(req.Context())

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("DELIVERECT_METHOD_NOT_ALLOWED", "method not allowed", requestID))
		return
	}
	if req.URL.Path != r.Path() {
		writeJSON(w, http.StatusNotFound, errorBody(core.ErrorOperationNotFound, "not found", requestID))
		return
	}

	envelope, err := r.readEnvelope(req)
	if err != nil {
		r.reject(w, logger, requestID, err)
		return
	}

	event, err := r.handler.Handle(req.Context(), envelope)
	if err != nil {
		r.reject(w, logger, requestID, err)
		return
	}

	if r.responseMode() == ResponseModeLastNode {
		if err := r.deliver(req.Context(), event); err != nil {
			logger.Error("deliverect webhook sink failed",
				"request_id", requestID,
				"event_type", event.Type.String(),
				"error", err.Error(),
			)
			r.reject(w, logger, requestID, err)
			return
		}
		writeJSON(w, http.StatusOK, event.Record())
		return
	}

	if !r.track() {
		logger.Warn("deliverect webhook refused while draining",
			"request_id", requestID,
			"event_type", event.Type.String(),
		)
		writeJSON(w, http.StatusServiceUnavailable, errorBody(ErrorCodeDraining, "receiver is shutting down", requestID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"received":   true,
		"eventType":  event.Type.String(),
		"request_id": requestID,
	})

	go func(ctx context.Context) {
		defer r.pending.Done()
		if err := r.deliver(ctx, event); err != nil {
			logger.Error("deliverect webhook sink failed",
				"request_id", requestID,
				"event_type", event.Type.String(),
				"error", err.Error(),
			)
		}
	}(context.WithoutCancel(req.Context()))
}

func (r *Receiver) readEnvelope(req *http.Request) (core.WebhookEnvelope, error) {
	limit := r.config.MaxBodyBytes
	if limit <= 0 {
		limit = core.DefaultWebhookMaxBody
	}
	raw, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	if err != nil {
		return core.WebhookEnvelope{}, core.BadInputError("webhooks: read body failed", map[string]any{"error": err.Error()})
	}
	if int64(len(raw)) > limit {
		return core.WebhookEnvelope{}, core.BadInputError("webhooks: body exceeds size limit", map[string]any{"limit": limit})
	}

	envelope := core.WebhookEnvelope{
		Headers: core.FlattenHeaders(req.Header),
		RawBody: raw,
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err == nil {
			envelope.Body = body
		}
	}
	return envelope, nil
}

func (r *Receiver) deliver(ctx context.Context, event ClassifiedEvent) error {
	if r.sink == nil {
		return nil
	}
	return r.sink.Deliver(ctx, event)
}

func (r *Receiver) responseMode() ResponseMode {
	if r.config.ResponseMode == ResponseModeLastNode {
		return ResponseModeLastNode
	}
	return ResponseModeImmediate
}

func (r *Receiver) reject(w http.ResponseWriter, logger core.Logger, requestID string, err error) {
	mapped := core.MapError(err)
	status := mapped.Code
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	logger.Warn("deliverect webhook request rejected",
		"request_id", requestID,
		"status", status,
		"error_code", mapped.TextCode,
	)
	writeJSON(w, status, errorBody(mapped.TextCode, mapped.Message, requestID))
}

func errorBody(code string, message string, requestID string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ShutdownTimeout bounds how long Drain waits for in-flight sink calls.
const ShutdownTimeout = 10 * time.Second

// Drain waits for pending sink calls or until ctx is done.
func (r *Receiver) Drain(ctx context.Context) error {
	r.stopAccepting()
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("webhooks: drain interrupted"), ctx.Err())
	}
}
