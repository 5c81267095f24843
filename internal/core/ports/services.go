package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyCache is the Redis-layer replay check (fast path). The
// Postgres idempotency record stays authoritative; the cache only lets
// a replay of a completed request skip the write path entirely.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MovementRequest is the input of the three money-movement flows.
type MovementRequest struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	ReferenceID string
	Description *string
	Metadata    map[string]interface{}
}

// MovementResult is the captured outcome of a flow. Idempotent marks a
// replayed response.
type MovementResult struct {
	TransactionID uuid.UUID              `json:"transaction_id"`
	ReferenceID   string                 `json:"reference_id"`
	Type          domain.TransactionType `json:"type"`
	AccountID     uuid.UUID              `json:"account_id"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
	Description   *string                `json:"description,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	Idempotent    bool                   `json:"idempotent,omitempty"`
}

// BalanceSnapshot is the read-only balance view.
type BalanceSnapshot struct {
	AccountID uuid.UUID       `json:"account_id"`
	AssetCode string          `json:"asset_code"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HistoryPage is a page of user-facing journal history. Item amounts
// are negated relative to storage so income shows positive.
type HistoryPage struct {
	Items  []HistoryEntry `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// HistoryEntry is a single user-facing history line.
type HistoryEntry struct {
	TransactionID uuid.UUID              `json:"transaction_id"`
	Type          domain.TransactionType `json:"type"`
	Reference     string                 `json:"reference"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
	Description   *string                `json:"description,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// AuditReport compares the cached balance against a full journal
// recomputation.
type AuditReport struct {
	AccountID      uuid.UUID       `json:"account_id"`
	CachedBalance  decimal.Decimal `json:"cached_balance"`
	JournalBalance decimal.Decimal `json:"journal_balance"`
	Discrepancy    decimal.Decimal `json:"discrepancy"`
	IsConsistent   bool            `json:"is_consistent"`
}

// LedgerService is the programmatic core surface: the three flows and
// the three queries.
type LedgerService interface {
	TopUp(ctx context.Context, req MovementRequest) (*MovementResult, error)
	Bonus(ctx context.Context, req MovementRequest) (*MovementResult, error)
	Spend(ctx context.Context, req MovementRequest) (*MovementResult, error)

	Balance(ctx context.Context, accountID uuid.UUID) (*BalanceSnapshot, error)
	History(ctx context.Context, params HistoryParams) (*HistoryPage, error)
	Audit(ctx context.Context, accountID uuid.UUID) (*AuditReport, error)
}
