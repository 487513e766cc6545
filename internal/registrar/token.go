package registrar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthDataFunc supplies per-call headers and query parameters, for
// example a fresh session cookie.
type AuthDataFunc func() (headers map[string]string, queryParams map[string]string)

// TokenProviderOptions configures TokenProvider.
type TokenProviderOptions struct {
	URL         string
	QueryParams map[string]string
	Headers     map[string]string
	AuthData    AuthDataFunc
	HTTPClient  *http.Client
}

// TokenProvider fetches Beams auth tokens from the application backend.
type TokenProvider struct {
	url         string
	queryParams map[string]string
	headers     map[string]string
	authData    AuthDataFunc
	http        *http.Client
}

func NewTokenProvider(opts TokenProviderOptions) *TokenProvider {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &TokenProvider{
		url:         strings.TrimSpace(opts.URL),
		queryParams: opts.QueryParams,
		headers:     opts.Headers,
		authData:    opts.AuthData,
		http:        client,
	}
}

// FetchToken calls GET {url}?user_id=... and returns the token field.
func (p *TokenProvider) FetchToken(ctx context.Context, userID string) (string, error) {
	if p.url == "" {
		return "", fmt.Errorf("token provider url is required")
	}
	base, err := url.Parse(p.url)
	if err != nil {
		return "", fmt.Errorf("parse token provider url: %w", err)
	}

	headers := map[string]string{}
	for key, value := range p.headers {
		headers[key] = value
	}
	query := base.Query()
	for key, value := range p.queryParams {
		query.Set(key, value)
	}
	if p.authData != nil {
		extraHeaders, extraParams := p.authData()
		for key, value := range extraHeaders {
			headers[key] = value
		}
		for key, value := range extraParams {
			query.Set(key, value)
		}
	}
	query.Set("user_id", userID)
	base.RawQuery = query.Encode()

	var payload struct {
		Token string `json:"token"`
	}
	if err := doJSON(ctx, p.http, http.MethodGet, base.String(), nil, headers, &payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token provider returned an empty token")
	}
	return payload.Token, nil
}
