package qbclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// AuthorizeEndpoint is where the user grants the app access to a company.
	AuthorizeEndpoint = "https://appcenter.intuit.com/connect/oauth2"

	// ScopeAccounting covers everything this importer reads.
	ScopeAccounting = "com.intuit.quickbooks.accounting"
)

// TokenPair is the result of the one-time authorization-code exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// BuildAuthorizeURL returns the browser URL for the initial OAuth grant.
func BuildAuthorizeURL(clientId, redirectURI, state string) string {
	params := url.Values{}
	params.Set("client_id", clientId)
	params.Set("response_type", "code")
	params.Set("scope", ScopeAccounting)
	params.Set("redirect_uri", redirectURI)
	params.Set("state", state)
	return AuthorizeEndpoint + "?" + params.Encode()
}

// ExchangeAuthCode trades the authorization code from the OAuth callback for
// the initial token pair.
func ExchangeAuthCode(ctx context.Context, clientId, clientSecret, code, redirectURI string) (TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tokens, err := requestTokens(ctx, httpClient, tokenEndpoint, clientId, clientSecret, form)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func requestTokens(ctx context.Context, httpClient *http.Client, endpoint, clientId, clientSecret string, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(clientId + ":" + clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokenResponse{}, fmt.Errorf("token endpoint error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return tokenResponse{}, err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return tokenResponse{}, fmt.Errorf("token endpoint returned an incomplete token pair")
	}
	return tokens, nil
}
