// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/metabridge/internal/application"
	"github.com/ericfisherdev/metabridge/internal/domain/model"
	"github.com/ericfisherdev/metabridge/internal/domain/port/driven"
)

// Pagination bounds, kept in lockstep with the token store's clamping so the
// echoed pagination values always describe the window actually returned.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler is the HTTP driving adapter. It translates requests into pipeline
// and store calls and maps their outcomes onto the response envelopes:
// 4xx for caller-input problems, 5xx for upstream or storage problems.
type Handler struct {
	exchangeSvc *application.ExchangeService
	tokenStore  driven.TokenStore
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(exchangeSvc *application.ExchangeService, tokenStore driven.TokenStore, logger *slog.Logger) *Handler {
	return &Handler{
		exchangeSvc: exchangeSvc,
		tokenStore:  tokenStore,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with recovery, request-id, metrics, and logging middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /meta/auth/callback", h.AuthCallback)
	mux.HandleFunc("GET /meta/auth/url", h.AuthURL)
	mux.HandleFunc("GET /meta/tokens", h.ListTokens)
	mux.HandleFunc("GET /meta/tokens/{id}", h.GetToken)
	mux.HandleFunc("GET /{$}", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = metricsMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// AuthCallback receives the OAuth redirect from Meta and runs the exchange
// pipeline. Error precedence: a provider-reported error parameter wins, then
// a missing code, then pipeline failures.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		h.logger.Warn("oauth callback returned provider error",
			"error", errCode,
			"description", query.Get("error_description"),
		)
		writeFailure(w, http.StatusBadRequest, errCode, query.Get("error_description"))
		return
	}

	code := query.Get("code")
	origin := model.OriginContext{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	}

	token, err := h.exchangeSvc.CompleteAuthorization(r.Context(), code, origin)
	if errors.Is(err, application.ErrMissingCode) {
		writeFailure(w, http.StatusBadRequest, "missing_code", "no authorization code was provided in the callback")
		return
	}
	if err != nil {
		// Step and upstream detail are already logged by the pipeline.
		writeJSON(w, http.StatusInternalServerError, FailureResponse{
			Success:     false,
			Error:       "oauth_processing_failed",
			Description: "failed to complete the token exchange",
			Details:     err.Error(),
		})
		return
	}

	accounts := token.AdAccounts
	if accounts == nil {
		accounts = []model.AdAccount{}
	}

	writeJSON(w, http.StatusOK, CallbackResponse{
		Success: true,
		Message: "authorization complete, token stored",
		Data: CallbackData{
			TokenID:     token.ID,
			AccessToken: token.AccessToken,
			TokenType:   token.TokenType,
			ExpiresIn:   token.ExpiresIn,
			AdAccounts:  accounts,
			Timestamp:   token.IssuedAt.UTC().Format(time.RFC3339),
		},
	})
}

// AuthURL returns the OAuth dialog URL built from configuration.
func (h *Handler) AuthURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AuthURLResponse{
		OAuthURL: h.exchangeSvc.AuthorizationURL(r.URL.Query().Get("state")),
		Message:  "open this URL in a browser to authorize the app",
	})
}

// ListTokens returns stored tokens, newest first, with pagination metadata.
// Tokens are always redacted on this path.
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	skip := queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}

	tokens, total, err := h.tokenStore.List(r.Context(), limit, skip)
	if err != nil {
		h.logger.Error("failed to list tokens", "error", err)
		writeFailure(w, http.StatusInternalServerError, "store_error", "failed to list tokens")
		return
	}

	resp := make([]TokenResponse, 0, len(tokens))
	for _, token := range tokens {
		resp = append(resp, toTokenResponse(token))
	}

	writeJSON(w, http.StatusOK, TokenListResponse{
		Success: true,
		Data: TokenListData{
			Tokens: resp,
			Pagination: PaginationResponse{
				Total:   total,
				Limit:   limit,
				Skip:    skip,
				HasMore: skip+len(resp) < total,
			},
		},
	})
}

// GetToken returns a single token record by ID. The access token is redacted
// unless includeToken=true is passed. A malformed ID is a 400, an absent one
// a 404 -- both caller-recoverable, neither a process failure.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_token_id", "token id must be an integer")
		return
	}

	includeToken := r.URL.Query().Get("includeToken") == "true"

	token, err := h.tokenStore.GetByID(r.Context(), id, includeToken)
	if err != nil {
		h.logger.Error("failed to get token", "token_id", id, "error", err)
		writeFailure(w, http.StatusInternalServerError, "store_error", "failed to load token")
		return
	}

	if token == nil {
		writeFailure(w, http.StatusNotFound, "token_not_found", "no token with that id")
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(*token))
}

// Health returns the root health payload.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "metabridge",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// clientIP extracts the originating address without the port. Recorded as
// informational origin context only.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
