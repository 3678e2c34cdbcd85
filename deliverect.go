package deliverect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-deliverect/auth"
	"github.com/goliatone/go-deliverect/catalog"
	"github.com/goliatone/go-deliverect/core"
	"github.com/goliatone/go-deliverect/pagination"
	"github.com/goliatone/go-deliverect/transport"
	"github.com/goliatone/go-deliverect/webhooks"
	glog "github.com/goliatone/go-logger/glog"
)

type Config = core.Config

type Option = core.Option

type OperationRequest = core.OperationRequest

type OperationDescriptor = core.OperationDescriptor

type Record = core.Record

var (
	WithLogger                = core.WithLogger
	WithLoggerProvider        = core.WithLoggerProvider
	WithMetricsRecorder       = core.WithMetricsRecorder
	WithErrorMapper           = core.WithErrorMapper
	WithConfigProvider        = core.WithConfigProvider
	WithOptionsResolver       = core.WithOptionsResolver
	WithCredentialStore       = core.WithCredentialStore
	WithWebhookSecretProvider = core.WithWebhookSecretProvider
	WithTokenSource           = core.WithTokenSource
	WithTransport             = core.WithTransport
	WithClock                 = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Service executes catalog operations against the Deliverect REST API and
// runs inbound webhook deliveries through verification and classification.
type Service struct {
	config      core.Config
	logger      core.Logger
	observer    core.Observer
	errorMapper core.ErrorMapper
	registry    *catalog.Registry
	credentials core.CredentialStore
	tokens      core.TokenSource
	fetcher     *transport.RecordFetcher
	aggregator  *pagination.Aggregator
	webhooks    *webhooks.Handler
}

// NewService resolves configuration and collaborators. Unset collaborators
// default to the environment credential store, the OAuth client-credentials
// token source and the REST adapter.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	resolved, deps, err := core.ResolveDependencies(context.Background(), cfg, opts...)
	if err != nil {
		return nil, mapBuildError(core.MapError, err)
	}

	logger := glog.Ensure(deps.RootLogger)
	if deps.Logger != nil {
		if named := deps.Logger.GetLogger(resolved.ServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	credentials := deps.CredentialStore
	if credentials == nil {
		credentials = auth.NewEnvCredentialStore()
	}
	secrets := deps.WebhookSecretProvider
	if secrets == nil {
		if asSecrets, ok := credentials.(core.WebhookSecretProvider); ok {
			secrets = asSecrets
		}
	}
	tokens := deps.TokenSource
	if tokens == nil {
		tokens = auth.NewClientCredentialsTokenSource(nil)
	}
	adapter := deps.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapterFromConfig(resolved, nil, transport.WithRESTLogger(logger))
	}

	handlerConfig := webhooks.HandlerConfig{
		VerifySignature: resolved.Webhook.SignatureVerificationEnabled(),
		Now:             deps.Clock,
	}

	return &Service{
		config:      resolved,
		logger:      logger,
		observer:    core.NewObserver(logger, deps.MetricsRecorder),
		errorMapper: deps.ErrorMapper,
		registry:    catalog.DefaultRegistry(),
		credentials: credentials,
		tokens:      tokens,
		fetcher:     transport.NewRecordFetcher(adapter, resolved.HTTP.Timeout),
		aggregator:  pagination.NewAggregator(logger, deps.MetricsRecorder),
		webhooks: webhooks.NewHandler(
			secrets,
			webhooks.WithHandlerLogger(logger),
			webhooks.WithHandlerConfig(handlerConfig),
		),
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper core.ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// Registry exposes the operation catalog so hosts can register extras.
func (s *Service) Registry() *catalog.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Operations() []OperationDescriptor {
	if s == nil {
		return nil
	}
	return s.registry.Descriptors()
}

// Execute runs one catalog operation. Paginated operations return every item
// across pages; others return the records decoded from a single response.
func (s *Service) Execute(ctx context.Context, req OperationRequest) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("deliverect: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{
		"resource":       req.Resource,
		"operation_name": req.Operation,
	}

	records, err := s.execute(ctx, req)
	if err != nil {
		err = s.mapError(err)
	} else {
		fields["records"] = len(records)
	}
	s.observer.Observe(ctx, startedAt, "execute", err, fields)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) execute(ctx context.Context, req OperationRequest) ([]Record, error) {
	op, err := s.registry.Lookup(req.Resource, req.Operation)
	if err != nil {
		return nil, err
	}
	if s.credentials == nil {
		return nil, core.BadInputError("deliverect: credential store is required", nil)
	}
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	baseURL, err := s.endpointFor(creds)
	if err != nil {
		return nil, err
	}
	template, err := catalog.Render(op, baseURL, catalog.Params(req.Params))
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Token(ctx, creds)
	if err != nil {
		return nil, err
	}
	template.Headers["Authorization"] = auth.BearerHeader(token)

	if op.Paginated {
		return s.aggregator.Aggregate(ctx, template, s.fetcher)
	}
	return s.fetcher.FetchPage(ctx, template)
}

// endpointFor prefers an explicit base_url, then the credential's domain,
// then the configured domain.
func (s *Service) endpointFor(creds core.Credentials) (string, error) {
	if strings.TrimSpace(s.config.BaseURL) != "" {
		return s.config.Endpoint(), nil
	}
	if strings.TrimSpace(creds.Domain) == "" {
		return s.config.Endpoint(), nil
	}
	domain, err := auth.ParseDomain(creds.Domain)
	if err != nil {
		return "", core.BadInputError(err.Error(), map[string]any{"field": "domain"})
	}
	return domain.BaseURL(), nil
}

// HandleWebhook verifies and classifies one delivery.
func (s *Service) HandleWebhook(ctx context.Context, envelope core.WebhookEnvelope) (webhooks.ClassifiedEvent, error) {
	if s == nil {
		return webhooks.ClassifiedEvent{}, fmt.Errorf("deliverect: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	event, err := s.webhooks.Handle(ctx, envelope)
	fields := map[string]any{}
	if err == nil {
		fields["event_type"] = event.Type.String()
		for field, key := range map[string]string{"order_id": "_id", "channel_link": "channelLink"} {
			if value, ok := event.Body[key]; ok && value != nil {
				fields[field] = value
			}
		}
	}
	s.observer.Observe(ctx, startedAt, "handle_webhook", err, fields)
	return event, err
}

// Handle lets the service back a webhooks.Receiver directly.
func (s *Service) Handle(ctx context.Context, envelope core.WebhookEnvelope) (webhooks.ClassifiedEvent, error) {
	return s.HandleWebhook(ctx, envelope)
}

// NewReceiver mounts the service's webhook handler on an HTTP receiver
// configured from webhook.* settings.
func (s *Service) NewReceiver(sink webhooks.EventSink) *webhooks.Receiver {
	return webhooks.NewReceiver(
		s,
		sink,
		webhooks.WithReceiverLogger(s.logger),
		webhooks.WithReceiverConfig(webhooks.ReceiverConfigFrom(s.config)),
	)
}

func (s *Service) mapError(err error) error {
	if err == nil || s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}
