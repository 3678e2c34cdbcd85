package auth

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
)

const (
	EnvDomain        = "DELIVERECT_DOMAIN"
	EnvClientID      = "DELIVERECT_CLIENT_ID"
	EnvClientSecret  = "DELIVERECT_CLIENT_SECRET"
	EnvWebhookSecret = "DELIVERECT_WEBHOOK_SECRET"
)

// StaticCredentialStore serves a fixed credential set.
type StaticCredentialStore struct {
	Creds core.Credentials
}

func NewStaticCredentialStore(creds core.Credentials) StaticCredentialStore {
	return StaticCredentialStore{Creds: creds}
}

func (s StaticCredentialStore) Credentials(context.Context) (core.Credentials, error) {
	return normalizeCredentials(s.Creds)
}

func (s StaticCredentialStore) WebhookSecret(context.Context) (string, error) {
	return s.Creds.WebhookSecret, nil
}

// EnvCredentialStore reads credentials from the environment on every call
// so rotated values are picked up without a restart.
type EnvCredentialStore struct {
	Lookup func(key string) (string, bool)
}

func NewEnvCredentialStore() EnvCredentialStore {
	return EnvCredentialStore{Lookup: os.LookupEnv}
}

func (s EnvCredentialStore) Credentials(context.Context) (core.Credentials, error) {
	return normalizeCredentials(core.Credentials{
		Domain:        s.get(EnvDomain),
		ClientID:      s.get(EnvClientID),
		ClientSecret:  s.get(EnvClientSecret),
		WebhookSecret: s.get(EnvWebhookSecret),
	})
}

func (s EnvCredentialStore) WebhookSecret(context.Context) (string, error) {
	return s.get(EnvWebhookSecret), nil
}

func (s EnvCredentialStore) get(key string) string {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, _ := lookup(key)
	return strings.TrimSpace(value)
}

func normalizeCredentials(creds core.Credentials) (core.Credentials, error) {
	domain, err := ParseDomain(creds.Domain)
	if err != nil {
		return core.Credentials{}, authWrapError(err, goerrors.CategoryBadInput, "auth: unsupported domain", http.StatusBadRequest, map[string]any{"domain": creds.Domain})
	}
	creds.Domain = string(domain)
	creds.ClientID = strings.TrimSpace(creds.ClientID)
	creds.ClientSecret = strings.TrimSpace(creds.ClientSecret)
	return creds, nil
}

// BearerHeader renders the Authorization header value for token.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}

var (
	_ core.CredentialStore       = StaticCredentialStore{}
	_ core.WebhookSecretProvider = StaticCredentialStore{}
	_ core.CredentialStore       = EnvCredentialStore{}
	_ core.WebhookSecretProvider = EnvCredentialStore{}
)
