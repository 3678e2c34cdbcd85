package webhooks

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-deliverect/core"
	glog "github.com/goliatone/go-logger/glog"
)

// ReceivedAtLayout renders _receivedAt as ISO-8601 UTC with milliseconds.
const ReceivedAtLayout = "2006-01-02T15:04:05.000Z"

const (
	EventTypeField  = "_eventType"
	ReceivedAtField = "_receivedAt"
)

type HandlerConfig struct {
	// VerifySignature disables the signature checks when false.
	VerifySignature bool
	Now             func() time.Time
}

func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{VerifySignature: true}
}

// ParseVerifySignature reads the host's verifySignature toggle. Booleans are
// taken as-is; "true"/"1" and "false"/"0" are accepted in any case. Anything
// else keeps verification on.
func ParseVerifySignature(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "false", "0":
			return false
		default:
			return true
		}
	default:
		return true
	}
}

type ClassifiedEvent struct {
	Type       EventType
	ReceivedAt time.Time
	Body       core.Record
}

// Record is the emitted item: the body with _eventType and _receivedAt.
func (e ClassifiedEvent) Record() core.Record {
	out := make(core.Record, len(e.Body)+2)
	for key, value := range e.Body {
		out[key] = value
	}
	out[EventTypeField] = e.Type.String()
	out[ReceivedAtField] = e.ReceivedAt.UTC().Format(ReceivedAtLayout)
	return out
}

// Handler runs one delivery through verification and classification. It is
// safe for concurrent use and holds nothing between calls; the secret is
// fetched per delivery and dropped when Handle returns.
type Handler struct {
	secrets core.WebhookSecretProvider
	config  HandlerConfig
	logger  core.Logger
}

type HandlerOption func(*Handler)

func WithHandlerLogger(logger core.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithHandlerConfig(cfg HandlerConfig) HandlerOption {
	return func(h *Handler) {
		h.config = cfg
	}
}

func NewHandler(secrets core.WebhookSecretProvider, options ...HandlerOption) *Handler {
	handler := &Handler{
		secrets: secrets,
		config:  DefaultHandlerConfig(),
		logger:  glog.Nop(),
	}
	for _, option := range options {
		if option != nil {
			option(handler)
		}
	}
	return handler
}

func (h *Handler) Handle(ctx context.Context, envelope core.WebhookEnvelope) (ClassifiedEvent, error) {
	if len(envelope.Body) == 0 {
		return ClassifiedEvent{}, core.NoDataError()
	}

	if h.config.VerifySignature {
		if err := h.verify(ctx, envelope); err != nil {
			h.logger.Warn("deliverect webhook rejected", "error_code", core.TextCode(err))
			return ClassifiedEvent{}, err
		}
	}

	event := ClassifiedEvent{
		Type:       Classify(envelope.Body),
		ReceivedAt: h.now().UTC(),
		Body:       envelope.Body,
	}
	h.logger.Debug("deliverect webhook classified", "event_type", event.Type.String())
	return event, nil
}

func (h *Handler) verify(ctx context.Context, envelope core.WebhookEnvelope) error {
	if h.secrets == nil {
		return core.MissingSecretConfigError(nil)
	}
	secret, err := h.secrets.WebhookSecret(ctx)
	if err != nil {
		return core.MissingSecretConfigError(err)
	}
	if secret == "" {
		return core.MissingSecretConfigError(nil)
	}

	signature := signatureHeader(envelope)
	if signature == "" {
		return core.MissingSignatureError()
	}
	if len(envelope.RawBody) == 0 {
		return core.RawBodyUnavailableError()
	}
	return SignatureVerifier{Secret: secret}.Verify(envelope.RawBody, signature)
}

func (h *Handler) now() time.Time {
	if h.config.Now != nil {
		return h.config.Now()
	}
	return time.Now()
}
