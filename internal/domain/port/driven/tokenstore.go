package driven

import (
	"context"

	"github.com/ericfisherdev/metabridge/internal/domain/model"
)

// TokenStore defines the driven port for token persistence. The store is
// append-only: there is no update or delete method by design.
type TokenStore interface {
	// Insert appends one token record and returns its store-assigned ID.
	// Every successful exchange creates a new row, even if it duplicates
	// an earlier token.
	Insert(ctx context.Context, token model.Token) (int64, error)

	// List returns tokens ordered by issued_at descending, windowed by
	// limit/skip, plus the total row count for pagination metadata.
	// Access tokens are always redacted in the returned records.
	// Out-of-range limit/skip values are clamped, not rejected.
	List(ctx context.Context, limit, skip int) ([]model.Token, int, error)

	// GetByID retrieves a single token record. Returns nil, nil if the ID
	// does not exist. The access token is redacted unless includeToken is set.
	GetByID(ctx context.Context, id int64, includeToken bool) (*model.Token, error)
}
