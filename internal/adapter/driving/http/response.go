package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal_error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeFailure writes the standard failure envelope with a stable error code
// string so clients can distinguish cases programmatically.
func writeFailure(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, FailureResponse{
		Success:     false,
		Error:       code,
		Description: description,
	})
}

// FailureResponse is the standard error envelope.
type FailureResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Description string `json:"description,omitempty"`
	Details     string `json:"details,omitempty"`
}

// CallbackResponse is the success envelope of the OAuth callback endpoint.
type CallbackResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    CallbackData `json:"data"`
}

// CallbackData carries the completed exchange back to the immediate caller.
// AccessToken is intentionally present here: returning the raw token in the
// callback body is a documented trust decision inherited from the flow's
// design, not an oversight.
type CallbackData struct {
	TokenID     int64             `json:"token_id"`
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	AdAccounts  []model.AdAccount `json:"ad_accounts"`
	Timestamp   string            `json:"timestamp"`
}

// TokenResponse is the JSON representation of a stored token record.
// AccessToken is omitted unless the caller explicitly requested it.
type TokenResponse struct {
	ID              int64                 `json:"id"`
	AccessToken     string                `json:"access_token,omitempty"`
	TokenType       string                `json:"token_type"`
	ExpiresIn       int64                 `json:"expires_in"`
	IssuedAt        string                `json:"issued_at"`
	AdAccounts      []model.AdAccount     `json:"ad_accounts"`
	AdAccountsCount int                   `json:"ad_accounts_count"`
	Origin          OriginContextResponse `json:"origin"`
	Status          string                `json:"status"`
}

// OriginContextResponse is the JSON representation of request metadata
// recorded at exchange time.
type OriginContextResponse struct {
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}

// TokenListResponse is the envelope of the token listing endpoint.
type TokenListResponse struct {
	Success bool          `json:"success"`
	Data    TokenListData `json:"data"`
}

// TokenListData holds the redacted token window plus pagination metadata.
type TokenListData struct {
	Tokens     []TokenResponse    `json:"tokens"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse describes the returned window relative to the full set.
type PaginationResponse struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"hasMore"`
}

// AuthURLResponse is the payload of the auth URL endpoint.
type AuthURLResponse struct {
	OAuthURL string `json:"oauth_url"`
	Message  string `json:"message"`
}

// HealthResponse is the root health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

// toTokenResponse converts a domain Token to its JSON representation.
// The AccessToken field is already empty for redacted records, and
// omitempty keeps it out of the serialized body entirely.
func toTokenResponse(token model.Token) TokenResponse {
	accounts := token.AdAccounts
	if accounts == nil {
		accounts = []model.AdAccount{}
	}

	return TokenResponse{
		ID:              token.ID,
		AccessToken:     token.AccessToken,
		TokenType:       token.TokenType,
		ExpiresIn:       token.ExpiresIn,
		IssuedAt:        token.IssuedAt.UTC().Format(time.RFC3339),
		AdAccounts:      accounts,
		AdAccountsCount: token.AdAccountsCount,
		Origin: OriginContextResponse{
			UserAgent: token.Origin.UserAgent,
			IPAddress: token.Origin.IPAddress,
		},
		Status: string(token.Status),
	}
}
