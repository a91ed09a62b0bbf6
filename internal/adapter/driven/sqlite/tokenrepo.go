package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
	"github.com/ericfisherdev/metabridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TokenRepo is the SQLite implementation of the TokenStore port interface.
// Rows are append-only; IDs come from AUTOINCREMENT so an ID is assigned
// exactly once and never reused even after the newest row is the only row.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo backed by the given DB.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Insert appends one token record and returns the assigned row ID.
// Ad accounts are serialized as a JSON array in the TEXT column. No dedup:
// re-running an exchange stores a second row even for an identical token.
func (r *TokenRepo) Insert(ctx context.Context, token model.Token) (int64, error) {
	const query = `
		INSERT INTO tokens (
			access_token, token_type, expires_in, issued_at,
			ad_accounts, ad_accounts_count, origin_user_agent, origin_ip, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	accounts := token.AdAccounts
	if accounts == nil {
		accounts = []model.AdAccount{}
	}
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return 0, fmt.Errorf("marshal ad accounts: %w", err)
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		token.AccessToken, token.TokenType, token.ExpiresIn, token.IssuedAt.UTC(),
		string(accountsJSON), len(accounts),
		token.Origin.UserAgent, token.Origin.IPAddress, string(token.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("insert token: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert token id: %w", err)
	}

	return id, nil
}

// List returns tokens ordered by issued_at descending plus the total row
// count across the whole table. Access tokens are never included in list
// results. Limit and skip are clamped rather than rejected: this is a
// read-only convenience path.
func (r *TokenRepo) List(ctx context.Context, limit, skip int) ([]model.Token, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	var total int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tokens: %w", err)
	}

	const query = `
		SELECT id, '', token_type, expires_in, issued_at,
		       ad_accounts, ad_accounts_count, origin_user_agent, origin_ip, status
		FROM tokens
		ORDER BY issued_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	tokens := []model.Token{}
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tokens: %w", err)
	}

	return tokens, total, nil
}

// GetByID retrieves a single token record by its assigned ID.
// Returns nil, nil if no row with that ID exists. The access_token column is
// only selected when includeToken is set, so the raw credential never leaves
// the store unless explicitly requested.
func (r *TokenRepo) GetByID(ctx context.Context, id int64, includeToken bool) (*model.Token, error) {
	tokenColumn := "''"
	if includeToken {
		tokenColumn = "access_token"
	}

	query := fmt.Sprintf(`
		SELECT id, %s, token_type, expires_in, issued_at,
		       ad_accounts, ad_accounts_count, origin_user_agent, origin_ip, status
		FROM tokens
		WHERE id = ?
	`, tokenColumn)

	token, err := scanToken(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token %d: %w", id, err)
	}

	return token, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*model.Token, error) {
	var token model.Token
	var status string
	var accountsJSON string
	var issuedAt string

	err := s.Scan(
		&token.ID, &token.AccessToken, &token.TokenType, &token.ExpiresIn, &issuedAt,
		&accountsJSON, &token.AdAccountsCount,
		&token.Origin.UserAgent, &token.Origin.IPAddress, &status,
	)
	if err != nil {
		return nil, err
	}

	token.Status = model.TokenStatus(status)

	if err := json.Unmarshal([]byte(accountsJSON), &token.AdAccounts); err != nil {
		return nil, fmt.Errorf("unmarshal ad accounts: %w", err)
	}

	token.IssuedAt, err = parseTime(issuedAt)
	if err != nil {
		return nil, fmt.Errorf("parse issued_at: %w", err)
	}

	return &token, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
