package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// EntryRepo implements ports.EntryRepository.
type EntryRepo struct {
	pool Pool
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(pool Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// Create appends a journal entry within a database transaction.
func (r *EntryRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Entry) error {
	query := `INSERT INTO entries (id, transaction_id, account_id, asset_type_id, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.TransactionID, e.AccountID, e.AssetTypeID,
		e.Amount, e.BalanceAfter, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// History returns an account's journal entries joined with their
// transaction headers, most recent first, plus a total count. Amounts
// are returned as stored; the service layer negates for display.
func (r *EntryRepo) History(ctx context.Context, params ports.HistoryParams) ([]ports.HistoryItem, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("e.account_id = $%d", argIdx))
	args = append(args, params.AccountID)
	argIdx++

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("t.type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM entries e
		JOIN transactions t ON t.id = e.transaction_id %s`, where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT e.id, e.transaction_id, e.account_id, e.asset_type_id,
		e.amount, e.balance_after, e.created_at,
		t.type, t.reference, t.description, t.created_at
		FROM entries e
		JOIN transactions t ON t.id = e.transaction_id
		%s ORDER BY t.created_at DESC, e.id DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []ports.HistoryItem
	for rows.Next() {
		var it ports.HistoryItem
		err := rows.Scan(
			&it.Entry.ID, &it.Entry.TransactionID, &it.Entry.AccountID, &it.Entry.AssetTypeID,
			&it.Entry.Amount, &it.Entry.BalanceAfter, &it.Entry.CreatedAt,
			&it.Type, &it.Reference, &it.Description, &it.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history rows: %w", err)
	}
	return items, total, nil
}

// JournalSum computes the exact signed sum of an account's journal
// amounts. NUMERIC aggregation in Postgres is exact decimal.
func (r *EntryRepo) JournalSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum journal: %w", err)
	}
	return sum, nil
}
