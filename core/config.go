package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultServiceName       = "deliverect"
	DefaultDomain            = "api.deliverect.com"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultWebhookPath       = "/deliverect-order"
	DefaultWebhookMaxBody    = int64(1 << 20)
	WebhookResponseImmediate = "immediate"
	WebhookResponseLastNode  = "lastNode"
)

type HTTPConfig struct {
	Timeout           time.Duration `koanf:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `koanf:"burst" mapstructure:"burst"`
	// HonorRateLimit refuses calls to a host while it is cooling down after
	// a 429 or an exhausted X-RateLimit-Remaining.
	HonorRateLimit bool `koanf:"honor_rate_limit" mapstructure:"honor_rate_limit"`
}

type WebhookConfig struct {
	Path string `koanf:"path" mapstructure:"path"`
	// VerifySignature is a pointer so an explicit false survives layering.
	VerifySignature *bool  `koanf:"verify_signature" mapstructure:"verify_signature"`
	ResponseMode    string `koanf:"response_mode" mapstructure:"response_mode"`
	MaxBodyBytes    int64  `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// SignatureVerificationEnabled defaults to true when unset.
func (c WebhookConfig) SignatureVerificationEnabled() bool {
	if c.VerifySignature == nil {
		return true
	}
	return *c.VerifySignature
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Domain      string        `koanf:"domain" mapstructure:"domain"`
	BaseURL     string        `koanf:"base_url" mapstructure:"base_url"`
	HTTP        HTTPConfig    `koanf:"http" mapstructure:"http"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: DefaultServiceName,
		Domain:      DefaultDomain,
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Webhook: WebhookConfig{
			Path:         DefaultWebhookPath,
			ResponseMode: WebhookResponseImmediate,
			MaxBodyBytes: DefaultWebhookMaxBody,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Domain) == "" && strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("core: domain or base_url is required")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("core: http.timeout must not be negative")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("core: http.requests_per_second must not be negative")
	}
	if c.HTTP.Burst < 0 {
		return fmt.Errorf("core: http.burst must not be negative")
	}
	if path := strings.TrimSpace(c.Webhook.Path); path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("core: webhook.path must start with /")
	}
	switch strings.TrimSpace(c.Webhook.ResponseMode) {
	case "", WebhookResponseImmediate, WebhookResponseLastNode:
	default:
		return fmt.Errorf("core: webhook.response_mode %q is invalid", c.Webhook.ResponseMode)
	}
	if c.Webhook.MaxBodyBytes < 0 {
		return fmt.Errorf("core: webhook.max_body_bytes must not be negative")
	}
	return nil
}

// Endpoint returns the REST base URL, preferring an explicit base_url.
func (c Config) Endpoint() string {
	if base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); base != "" {
		return base
	}
	return "https://" + strings.TrimSpace(c.Domain)
}
