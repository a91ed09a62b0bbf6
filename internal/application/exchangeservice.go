// Package application contains the use-case services sitting between the
// HTTP boundary and the driven ports.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
	"github.com/ericfisherdev/metabridge/internal/domain/port/driven"
)

// ErrMissingCode is returned when CompleteAuthorization is called without an
// authorization code. Checked before any network call is made.
var ErrMissingCode = errors.New("authorization code is required")

// Exchange step names, used in ExchangeError and in logs to identify which
// stage of the pipeline failed.
const (
	StepCodeExchange      = "code_exchange"
	StepLongLivedExchange = "long_lived_exchange"
	StepAccountFetch      = "account_fetch"
	StepStore             = "store"
)

// ExchangeError wraps a failure of one pipeline step. Step identifies the
// stage; Err is the underlying provider or store error.
type ExchangeError struct {
	Step string
	Err  error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange failed at %s: %v", e.Step, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ExchangeService runs the authorization-code exchange pipeline: code to
// short-lived token, short-lived to long-lived token, token validation via
// the caller's ad account list, then one store write. Strictly sequential --
// each call depends on the previous one's output -- and all-or-nothing:
// nothing is persisted unless every step succeeds.
type ExchangeService struct {
	meta   driven.MetaClient
	tokens driven.TokenStore
	logger *slog.Logger
	now    func() time.Time
}

// NewExchangeService creates an ExchangeService with the required dependencies.
func NewExchangeService(meta driven.MetaClient, tokens driven.TokenStore, logger *slog.Logger) *ExchangeService {
	return &ExchangeService{
		meta:   meta,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// CompleteAuthorization exchanges the authorization code for a validated
// long-lived token and persists it. The returned record includes the raw
// access token: the callback response is the one documented place where the
// credential leaves the system.
//
// A partial exchange persists nothing. A short-lived token that fails the
// long-lived upgrade or validation is not worth storing, so there is no
// compensating write for intermediate states.
func (s *ExchangeService) CompleteAuthorization(ctx context.Context, code string, origin model.OriginContext) (*model.Token, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	shortLived, err := s.meta.ExchangeCode(ctx, code)
	if err != nil {
		s.logStepFailure(ctx, StepCodeExchange, err)
		return nil, &ExchangeError{Step: StepCodeExchange, Err: err}
	}

	longLived, err := s.meta.ExchangeLongLived(ctx, shortLived.AccessToken)
	if err != nil {
		s.logStepFailure(ctx, StepLongLivedExchange, err)
		return nil, &ExchangeError{Step: StepLongLivedExchange, Err: err}
	}

	accounts, err := s.meta.FetchAdAccounts(ctx, longLived.AccessToken)
	if err != nil {
		s.logStepFailure(ctx, StepAccountFetch, err)
		return nil, &ExchangeError{Step: StepAccountFetch, Err: err}
	}

	token := model.Token{
		AccessToken:     longLived.AccessToken,
		TokenType:       longLived.TokenType,
		ExpiresIn:       longLived.ExpiresIn,
		IssuedAt:        s.now().UTC(),
		AdAccounts:      accounts,
		AdAccountsCount: len(accounts),
		Origin:          origin,
		Status:          model.TokenStatusActive,
	}

	id, err := s.tokens.Insert(ctx, token)
	if err != nil {
		// The token was never durably recorded, so the caller must see a
		// failure even though the provider exchange itself succeeded.
		s.logStepFailure(ctx, StepStore, err)
		return nil, &ExchangeError{Step: StepStore, Err: err}
	}
	token.ID = id

	s.logger.Info("authorization exchange complete",
		"token_id", id,
		"ad_accounts", token.AdAccountsCount,
		"expires_in", token.ExpiresIn,
	)

	return &token, nil
}

// AuthorizationURL builds the OAuth dialog URL for the configured app.
func (s *ExchangeService) AuthorizationURL(state string) string {
	return s.meta.AuthCodeURL(state)
}

// logStepFailure logs a pipeline failure with the step name. Access tokens
// never appear in the log output; only the step and the upstream error do.
func (s *ExchangeService) logStepFailure(ctx context.Context, step string, err error) {
	s.logger.ErrorContext(ctx, "authorization exchange failed",
		"step", step,
		"error", err,
	)
}
