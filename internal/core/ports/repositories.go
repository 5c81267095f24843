package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts and
// their cached balance rows. Methods accepting pgx.Tx run inside a
// transactional session.
type AccountRepository interface {
	// GetByID fetches an active account by id without locking.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// GetByIDInSession is the in-session, non-locking variant.
	GetByIDInSession(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	// GetByExternalID resolves a well-known system account. No lock.
	GetByExternalID(ctx context.Context, tx pgx.Tx, externalID string) (*domain.Account, error)
	// LockBalances deduplicates and sorts ids in ascending canonical
	// order, then acquires exclusive row locks on the corresponding
	// balance rows in that order. Inactive accounts are not returned.
	LockBalances(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]domain.Account, error)
	// UpdateBalance writes a new cached balance and bumps the version.
	// The caller must hold the row lock.
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines persistence for transaction headers.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
}

// EntryRepository defines persistence for journal entries plus the
// read-only queries of the query surface.
type EntryRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.Entry) error
	// History returns the most recent entries for an account together
	// with a total count, descending by transaction creation time.
	History(ctx context.Context, params HistoryParams) ([]HistoryItem, int64, error)
	// JournalSum computes the exact signed sum of an account's journal
	// amounts.
	JournalSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// HistoryParams holds filter + pagination for the history query.
type HistoryParams struct {
	AccountID uuid.UUID
	Type      *domain.TransactionType
	Limit     int
	Offset    int
}

// HistoryItem is a journal entry joined with its transaction header.
type HistoryItem struct {
	Entry       domain.Entry
	Type        domain.TransactionType
	Reference   string
	Description *string
	CreatedAt   time.Time
}

// IdempotencyRepository defines persistence for idempotency records.
// Both operations run inside the session so a duplicate is detected
// before any state change and recorded with the commit.
type IdempotencyRepository interface {
	// Get returns a record only if its expiry is in the future.
	Get(ctx context.Context, tx pgx.Tx, reference string) (*domain.IdempotencyRecord, error)
	// Create inserts; on key collision it does nothing (first writer wins).
	Create(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyRecord) error
}

// Sessioner is the scoped transactional session primitive. It opens a
// serializable transaction, runs the body, commits on normal return,
// rolls back on error, and retries the body on transient serialization
// conflicts. The body must be deterministic with respect to its inputs
// to be safely retryable.
type Sessioner interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
