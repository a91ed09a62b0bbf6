package model

import "time"

// TokenStatus is the lifecycle tag of a stored token. Tokens are created
// active and there is no transition out of active anywhere in the system.
type TokenStatus string

const (
	TokenStatusActive TokenStatus = "active"
)

// Token is the persisted record of one completed authorization exchange.
// Records are append-only: once written they are never updated or deleted.
type Token struct {
	ID              int64
	AccessToken     string // Long-lived Graph API token. Treated as a secret; never logged.
	TokenType       string
	ExpiresIn       int64 // Validity window in seconds, as reported by Meta.
	IssuedAt        time.Time
	AdAccounts      []AdAccount
	AdAccountsCount int
	Origin          OriginContext
	Status          TokenStatus
}

// OriginContext captures request metadata recorded alongside a token.
// Informational only; never used for access control.
type OriginContext struct {
	UserAgent string
	IPAddress string
}
