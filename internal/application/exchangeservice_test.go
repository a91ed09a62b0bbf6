package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
)

// --- Mock implementations ---

type mockMetaClient struct {
	exchangeCodeCalls      int
	exchangeLongLivedCalls int
	fetchAdAccountsCalls   int

	shortLived *model.TokenResponse
	longLived  *model.TokenResponse
	accounts   []model.AdAccount

	exchangeCodeErr      error
	exchangeLongLivedErr error
	fetchAdAccountsErr   error

	gotCode       string
	gotShortToken string
	gotLongToken  string
}

func (m *mockMetaClient) ExchangeCode(_ context.Context, code string) (*model.TokenResponse, error) {
	m.exchangeCodeCalls++
	m.gotCode = code
	if m.exchangeCodeErr != nil {
		return nil, m.exchangeCodeErr
	}
	return m.shortLived, nil
}

func (m *mockMetaClient) ExchangeLongLived(_ context.Context, shortLivedToken string) (*model.TokenResponse, error) {
	m.exchangeLongLivedCalls++
	m.gotShortToken = shortLivedToken
	if m.exchangeLongLivedErr != nil {
		return nil, m.exchangeLongLivedErr
	}
	return m.longLived, nil
}

func (m *mockMetaClient) FetchAdAccounts(_ context.Context, accessToken string) ([]model.AdAccount, error) {
	m.fetchAdAccountsCalls++
	m.gotLongToken = accessToken
	if m.fetchAdAccountsErr != nil {
		return nil, m.fetchAdAccountsErr
	}
	return m.accounts, nil
}

func (m *mockMetaClient) AuthCodeURL(_ string) string {
	return "https://www.facebook.com/v23.0/dialog/oauth?client_id=test"
}

type mockTokenStore struct {
	insertCalls int
	insertErr   error
	inserted    []model.Token
	nextID      int64
}

func (m *mockTokenStore) Insert(_ context.Context, token model.Token) (int64, error) {
	m.insertCalls++
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, token)
	m.nextID++
	return m.nextID, nil
}

func (m *mockTokenStore) List(_ context.Context, _, _ int) ([]model.Token, int, error) {
	return nil, 0, nil
}

func (m *mockTokenStore) GetByID(_ context.Context, _ int64, _ bool) (*model.Token, error) {
	return nil, nil
}

// --- Helpers ---

func newTestService(meta *mockMetaClient, store *mockTokenStore) *ExchangeService {
	svc := NewExchangeService(meta, store, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return svc
}

func happyPathMocks() (*mockMetaClient, *mockTokenStore) {
	meta := &mockMetaClient{
		shortLived: &model.TokenResponse{AccessToken: "SHORT"},
		longLived:  &model.TokenResponse{AccessToken: "LONG", TokenType: "bearer", ExpiresIn: 5184000},
		accounts:   []model.AdAccount{{ID: "act_1"}, {ID: "act_2"}},
	}
	return meta, &mockTokenStore{}
}

// --- Tests ---

func TestCompleteAuthorization_MissingCode(t *testing.T) {
	meta, store := happyPathMocks()
	svc := newTestService(meta, store)

	token, err := svc.CompleteAuthorization(context.Background(), "", model.OriginContext{})

	require.ErrorIs(t, err, ErrMissingCode)
	assert.Nil(t, token)
	// No network call may be attempted before the input check.
	assert.Equal(t, 0, meta.exchangeCodeCalls)
	assert.Equal(t, 0, meta.exchangeLongLivedCalls)
	assert.Equal(t, 0, meta.fetchAdAccountsCalls)
	assert.Equal(t, 0, store.insertCalls)
}

func TestCompleteAuthorization_Success(t *testing.T) {
	meta, store := happyPathMocks()
	svc := newTestService(meta, store)

	origin := model.OriginContext{UserAgent: "curl/8.0", IPAddress: "203.0.113.9"}
	token, err := svc.CompleteAuthorization(context.Background(), "AUTHCODE", origin)

	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, "LONG", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int64(5184000), token.ExpiresIn)
	assert.Equal(t, 2, token.AdAccountsCount)
	assert.Equal(t, model.TokenStatusActive, token.Status)
	assert.Equal(t, origin, token.Origin)
	assert.Equal(t, int64(1), token.ID)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), token.IssuedAt)

	// Each step feeds the next one's input.
	assert.Equal(t, "AUTHCODE", meta.gotCode)
	assert.Equal(t, "SHORT", meta.gotShortToken)
	assert.Equal(t, "LONG", meta.gotLongToken)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "LONG", store.inserted[0].AccessToken)
}

func TestCompleteAuthorization_StepFailuresPersistNothing(t *testing.T) {
	upstream := errors.New("graph api /oauth/access_token: status 400")

	tests := []struct {
		name     string
		arrange  func(m *mockMetaClient, s *mockTokenStore)
		wantStep string
	}{
		{
			name:     "code exchange fails",
			arrange:  func(m *mockMetaClient, _ *mockTokenStore) { m.exchangeCodeErr = upstream },
			wantStep: StepCodeExchange,
		},
		{
			name:     "long lived exchange fails",
			arrange:  func(m *mockMetaClient, _ *mockTokenStore) { m.exchangeLongLivedErr = upstream },
			wantStep: StepLongLivedExchange,
		},
		{
			name:     "account fetch fails",
			arrange:  func(m *mockMetaClient, _ *mockTokenStore) { m.fetchAdAccountsErr = upstream },
			wantStep: StepAccountFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, store := happyPathMocks()
			tt.arrange(meta, store)
			svc := newTestService(meta, store)

			token, err := svc.CompleteAuthorization(context.Background(), "AUTHCODE", model.OriginContext{})

			require.Error(t, err)
			assert.Nil(t, token)

			var exchangeErr *ExchangeError
			require.ErrorAs(t, err, &exchangeErr)
			assert.Equal(t, tt.wantStep, exchangeErr.Step)
			assert.ErrorIs(t, err, upstream)

			// A partial exchange must never reach the store.
			assert.Equal(t, 0, store.insertCalls)
		})
	}
}

func TestCompleteAuthorization_StoreFailureSurfaced(t *testing.T) {
	meta, store := happyPathMocks()
	store.insertErr = errors.New("disk full")
	svc := newTestService(meta, store)

	token, err := svc.CompleteAuthorization(context.Background(), "AUTHCODE", model.OriginContext{})

	require.Error(t, err)
	assert.Nil(t, token)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, StepStore, exchangeErr.Step)
}

func TestCompleteAuthorization_NilAccountList(t *testing.T) {
	meta, store := happyPathMocks()
	meta.accounts = nil
	svc := newTestService(meta, store)

	token, err := svc.CompleteAuthorization(context.Background(), "AUTHCODE", model.OriginContext{})

	require.NoError(t, err)
	assert.Equal(t, 0, token.AdAccountsCount)
}

func TestAuthorizationURL(t *testing.T) {
	meta, store := happyPathMocks()
	svc := newTestService(meta, store)

	assert.Contains(t, svc.AuthorizationURL("xyz"), "dialog/oauth")
}
