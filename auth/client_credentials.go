package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTokenTimeout = 30 * time.Second

// ClientCredentialsTokenSource exchanges client id and secret for a bearer
// token at https://{domain}/oauth/token and reuses it until it expires.
// Sources are cached per domain and client, so a rotated secret gets a
// fresh exchange.
type ClientCredentialsTokenSource struct {
	// HTTPClient performs the token exchange.
	HTTPClient *http.Client
	// TokenURL overrides the per-domain endpoint.
	TokenURL string

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func NewClientCredentialsTokenSource(client *http.Client) *ClientCredentialsTokenSource {
	if client == nil {
		client = &http.Client{Timeout: defaultTokenTimeout}
	}
	return &ClientCredentialsTokenSource{
		HTTPClient: client,
		sources:    map[string]oauth2.TokenSource{},
	}
}

func (s *ClientCredentialsTokenSource) Token(ctx context.Context, creds core.Credentials) (string, error) {
	if s == nil {
		return "", authError("auth: token source is nil", goerrors.CategoryInternal, http.StatusInternalServerError, nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clientID := strings.TrimSpace(creds.ClientID)
	clientSecret := strings.TrimSpace(creds.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return "", authError("auth: client id and client secret are required", goerrors.CategoryBadInput, http.StatusBadRequest, nil)
	}
	domain, err := ParseDomain(creds.Domain)
	if err != nil {
		return "", authWrapError(err, goerrors.CategoryBadInput, "auth: unsupported domain", http.StatusBadRequest, map[string]any{"domain": creds.Domain})
	}

	token, err := s.source(domain, clientID, clientSecret).Token()
	if err != nil {
		return "", tokenExchangeError(err, domain)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", authError("auth: token response has no access_token", goerrors.CategoryExternal, http.StatusBadGateway, map[string]any{"domain": string(domain)})
	}
	return token.AccessToken, nil
}

// Forget drops any cached token for the client, forcing a new exchange on
// the next call.
func (s *ClientCredentialsTokenSource) Forget(creds core.Credentials) {
	domain, err := ParseDomain(creds.Domain)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, cacheKey(domain, strings.TrimSpace(creds.ClientID), strings.TrimSpace(creds.ClientSecret)))
}

func (s *ClientCredentialsTokenSource) source(domain Domain, clientID string, clientSecret string) oauth2.TokenSource {
	key := cacheKey(domain, clientID, clientSecret)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sources == nil {
		s.sources = map[string]oauth2.TokenSource{}
	}
	if existing, ok := s.sources[key]; ok {
		return existing
	}

	tokenURL := strings.TrimSpace(s.TokenURL)
	if tokenURL == "" {
		tokenURL = domain.TokenURL()
	}
	config := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		EndpointParams: map[string][]string{
			"audience": {domain.Audience()},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTokenTimeout}
	}
	// the token source keeps this context for every refresh
	exchangeCtx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
	source := oauth2.ReuseTokenSource(nil, config.TokenSource(exchangeCtx))
	s.sources[key] = source
	return source
}

func cacheKey(domain Domain, clientID string, clientSecret string) string {
	sum := sha256.Sum256([]byte(clientSecret))
	return string(domain) + "|" + clientID + "|" + hex.EncodeToString(sum[:8])
}

func tokenExchangeError(err error, domain Domain) error {
	metadata := map[string]any{"domain": string(domain)}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		metadata["status_code"] = retrieveErr.Response.StatusCode
		if retrieveErr.ErrorCode != "" {
			metadata["oauth_error"] = retrieveErr.ErrorCode
		}
		status := retrieveErr.Response.StatusCode
		if status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest {
			return authWrapError(err, goerrors.CategoryAuth, "auth: deliverect rejected client credentials", http.StatusUnauthorized, metadata)
		}
	}
	return authWrapError(err, goerrors.CategoryExternal, "auth: token exchange failed", http.StatusBadGateway, metadata)
}

var _ core.TokenSource = (*ClientCredentialsTokenSource)(nil)
