package driven

import (
	"context"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
)

// MetaClient defines the driven port for the Meta Graph API. Three stateless
// calls, each depending on the previous one's output; no retries anywhere --
// a failed exchange is surfaced to the user, not masked.
type MetaClient interface {
	// ExchangeCode trades an authorization code for a short-lived access token.
	ExchangeCode(ctx context.Context, code string) (*model.TokenResponse, error)

	// ExchangeLongLived trades a short-lived token for a long-lived one
	// via the fb_exchange_token grant.
	ExchangeLongLived(ctx context.Context, shortLivedToken string) (*model.TokenResponse, error)

	// FetchAdAccounts lists the ad accounts visible to the token's user.
	// Doubles as a token liveness check: an invalid token yields a Graph error.
	FetchAdAccounts(ctx context.Context, accessToken string) ([]model.AdAccount, error)

	// AuthCodeURL builds the Meta OAuth dialog URL for the configured app.
	AuthCodeURL(state string) string
}
