package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// Dependencies is the resolved collaborator set handed to the service.
type Dependencies struct {
	Logger                LoggerProvider
	RootLogger            Logger
	MetricsRecorder       MetricsRecorder
	ErrorMapper           ErrorMapper
	ConfigProvider        ConfigProvider
	OptionsResolver       OptionsResolver
	CredentialStore       CredentialStore
	WebhookSecretProvider WebhookSecretProvider
	TokenSource           TokenSource
	Transport             TransportAdapter
	Clock                 func() time.Time
}

type serviceBuilder struct {
	runtimeConfig         Config
	logger                Logger
	loggerProvider        LoggerProvider
	metricsRecorder       MetricsRecorder
	errorMapper           ErrorMapper
	configProvider        ConfigProvider
	optionsResolver       OptionsResolver
	credentialStore       CredentialStore
	webhookSecretProvider WebhookSecretProvider
	tokenSource           TokenSource
	transport             TransportAdapter
	clock                 func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(b *serviceBuilder) {
		b.credentialStore = store
	}
}

// WithWebhookSecretProvider overrides the webhook secret source. When unset
// the credential store is used if it also implements WebhookSecretProvider.
func WithWebhookSecretProvider(provider WebhookSecretProvider) Option {
	return func(b *serviceBuilder) {
		b.webhookSecretProvider = provider
	}
}

func WithTokenSource(source TokenSource) Option {
	return func(b *serviceBuilder) {
		b.tokenSource = source
	}
}

func WithTransport(adapter TransportAdapter) Option {
	return func(b *serviceBuilder) {
		b.transport = adapter
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.clock = clock
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig:   runtime,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     MapError,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		clock:           time.Now,
	}
}

// ResolveDependencies applies opts over the defaults, loads configuration
// through the config provider and layers defaults < loaded < runtime via the
// options resolver.
func ResolveDependencies(ctx context.Context, runtime Config, options ...Option) (Config, Dependencies, error) {
	builder := defaultServiceBuilder(runtime)
	for _, option := range options {
		if option != nil {
			option(&builder)
		}
	}

	defaults := DefaultConfig()
	loaded := defaults
	if builder.configProvider != nil {
		cfg, err := builder.configProvider.Load(ctx, defaults)
		if err != nil {
			return Config{}, Dependencies{}, fmt.Errorf("core: load config: %w", err)
		}
		loaded = cfg
	}
	resolver := builder.optionsResolver
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	cfg, err := resolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return Config{}, Dependencies{}, fmt.Errorf("core: resolve config: %w", err)
	}

	provider, logger := glog.Resolve(cfg.ServiceName, builder.loggerProvider, builder.logger)
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}
	secrets := builder.webhookSecretProvider
	if secrets == nil {
		if asSecrets, ok := builder.credentialStore.(WebhookSecretProvider); ok {
			secrets = asSecrets
		}
	}

	return cfg, Dependencies{
		Logger:                provider,
		RootLogger:            logger,
		MetricsRecorder:       builder.metricsRecorder,
		ErrorMapper:           builder.errorMapper,
		ConfigProvider:        builder.configProvider,
		OptionsResolver:       resolver,
		CredentialStore:       builder.credentialStore,
		WebhookSecretProvider: secrets,
		TokenSource:           builder.tokenSource,
		Transport:             builder.transport,
		Clock:                 builder.clock,
	}, nil
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticConfig wraps an in-memory raw config map as a RawConfigLoader.
func StaticConfig(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	raw, err = normalizeRawConfig(raw)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalizeRawConfig parses duration strings such as "15s" found under
// http.timeout so file-based config can use human readable values.
func normalizeRawConfig(raw map[string]any) (map[string]any, error) {
	httpSection, ok := raw["http"].(map[string]any)
	if !ok {
		return raw, nil
	}
	value, ok := httpSection["timeout"].(string)
	if !ok {
		return raw, nil
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("core: http.timeout %q is invalid: %w", value, err)
	}
	section := make(map[string]any, len(httpSection))
	for key, item := range httpSection {
		section[key] = item
	}
	section["timeout"] = timeout
	out := make(map[string]any, len(raw))
	for key, item := range raw {
		out[key] = item
	}
	out["http"] = section
	return out, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setString(layer, "service_name", cfg.ServiceName)
	setString(layer, "domain", cfg.Domain)
	setString(layer, "base_url", cfg.BaseURL)

	httpLayer := map[string]any{}
	if includeZero || cfg.HTTP.Timeout > 0 {
		httpLayer["timeout"] = cfg.HTTP.Timeout
	}
	if includeZero || cfg.HTTP.RequestsPerSecond > 0 {
		httpLayer["requests_per_second"] = cfg.HTTP.RequestsPerSecond
	}
	if includeZero || cfg.HTTP.Burst > 0 {
		httpLayer["burst"] = cfg.HTTP.Burst
	}
	if includeZero || cfg.HTTP.HonorRateLimit {
		httpLayer["honor_rate_limit"] = cfg.HTTP.HonorRateLimit
	}
	if len(httpLayer) > 0 {
		layer["http"] = httpLayer
	}

	webhookLayer := map[string]any{}
	setString(webhookLayer, "path", cfg.Webhook.Path)
	setString(webhookLayer, "response_mode", cfg.Webhook.ResponseMode)
	if cfg.Webhook.VerifySignature != nil {
		webhookLayer["verify_signature"] = *cfg.Webhook.VerifySignature
	}
	if includeZero || cfg.Webhook.MaxBodyBytes > 0 {
		webhookLayer["max_body_bytes"] = cfg.Webhook.MaxBodyBytes
	}
	if len(webhookLayer) > 0 {
		layer["webhook"] = webhookLayer
	}
	return layer
}
