// Package meta implements the MetaClient port against the Meta Graph API.
package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
	"github.com/ericfisherdev/metabridge/internal/domain/port/driven"
)

// DefaultGraphBaseURL is the versioned Graph API root used when no override
// is configured.
const DefaultGraphBaseURL = "https://graph.facebook.com/v23.0"

// dialogBaseURL hosts the user-facing OAuth consent dialog. Unlike the Graph
// API root it lives on www.facebook.com.
const dialogBaseURL = "https://www.facebook.com/v23.0/dialog/oauth"

// adAccountFields is the field projection requested from /me/adaccounts.
const adAccountFields = "id,account_id,name,account_status,currency"

// Compile-time interface satisfaction check.
var _ driven.MetaClient = (*Client)(nil)

// Client implements the driven.MetaClient port with plain HTTP calls to the
// Graph API. The token exchange is a one-shot, user-triggered flow, so there
// are no retries and no backoff: a provider failure is surfaced promptly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	oauthCfg   oauth2.Config
	appSecret  string
}

// NewClient creates a Graph API client for the given app credentials.
// baseURL is the versioned Graph API root; pass DefaultGraphBaseURL outside
// of tests. scopes are the OAuth permissions requested in the dialog URL.
func NewClient(baseURL, appID, appSecret, redirectURI string, scopes []string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		appSecret:  appSecret,
		oauthCfg: oauth2.Config{
			ClientID:    appID,
			RedirectURL: redirectURI,
			Scopes:      scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  dialogBaseURL,
				TokenURL: strings.TrimRight(baseURL, "/") + "/oauth/access_token",
			},
		},
	}
}

// AuthCodeURL builds the Meta OAuth dialog URL for the configured app.
// Pure string construction; no network involved.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a short-lived access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.TokenResponse, error) {
	params := url.Values{
		"client_id":     {c.oauthCfg.ClientID},
		"client_secret": {c.appSecret},
		"redirect_uri":  {c.oauthCfg.RedirectURL},
		"code":          {code},
	}

	return c.requestToken(ctx, params)
}

// ExchangeLongLived trades a short-lived token for a long-lived one via the
// fb_exchange_token grant.
func (c *Client) ExchangeLongLived(ctx context.Context, shortLivedToken string) (*model.TokenResponse, error) {
	params := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.oauthCfg.ClientID},
		"client_secret":     {c.appSecret},
		"fb_exchange_token": {shortLivedToken},
	}

	return c.requestToken(ctx, params)
}

// FetchAdAccounts lists the ad accounts visible to the token's user. An
// invalid or expired token yields a Graph error here, so this call doubles
// as the pipeline's liveness check.
func (c *Client) FetchAdAccounts(ctx context.Context, accessToken string) ([]model.AdAccount, error) {
	params := url.Values{
		"access_token": {accessToken},
		"fields":       {adAccountFields},
	}

	var payload struct {
		Data []model.AdAccount `json:"data"`
	}
	if err := c.get(ctx, "/me/adaccounts", params, &payload); err != nil {
		return nil, err
	}

	accounts := payload.Data
	if accounts == nil {
		accounts = []model.AdAccount{}
	}

	return accounts, nil
}

// requestToken hits the token endpoint with the given grant parameters and
// decodes the shared token response shape.
func (c *Client) requestToken(ctx context.Context, params url.Values) (*model.TokenResponse, error) {
	var token model.TokenResponse
	if err := c.get(ctx, "/oauth/access_token", params, &token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access_token")
	}

	return &token, nil
}

// get performs a Graph API GET and decodes the JSON body into out.
// Non-2xx responses are returned as *APIError carrying the Graph error
// payload so callers can log which upstream condition occurred.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A *url.Error's text embeds the full request URL, and the query
		// string carries credentials (access_token, client_secret, code).
		// Wrap only the underlying transport error so those never reach
		// logs or error responses.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("graph api request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graph api response %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode graph api response %s: %w", path, err)
	}

	return nil
}
