package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `a.id, a.external_id, a.kind, a.asset_type_id, t.code, a.display_name, a.active,
		b.balance, b.version, a.created_at, b.updated_at`

const accountJoins = `FROM accounts a
		JOIN balances b ON b.account_id = a.id
		JOIN asset_types t ON t.id = a.asset_type_id`

// GetByID fetches an active account with its cached balance (non-locking read).
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = $1 AND a.active`, accountColumns, accountJoins)
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByIDInSession fetches an active account within a transaction, without locking.
func (r *AccountRepo) GetByIDInSession(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = $1 AND a.active`, accountColumns, accountJoins)
	return scanAccount(tx.QueryRow(ctx, query, id))
}

// GetByExternalID resolves a well-known system account by its stable
// string identifier. No lock.
func (r *AccountRepo) GetByExternalID(ctx context.Context, tx pgx.Tx, externalID string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.external_id = $1 AND a.active`, accountColumns, accountJoins)
	return scanAccount(tx.QueryRow(ctx, query, externalID))
}

// LockBalances acquires exclusive row locks on the balance rows of the
// given accounts. Ids are deduplicated and sorted in ascending unsigned
// byte order; the single batched query locks in that same order, which
// makes lock-graph cycles between overlapping transactions structurally
// impossible. Inactive accounts are not returned.
func (r *AccountRepo) LockBalances(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]domain.Account, error) {
	ordered := canonicalOrder(ids)

	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = ANY($1) AND a.active
		ORDER BY a.id FOR UPDATE OF b`, accountColumns, accountJoins)

	rows, err := tx.Query(ctx, query, ordered)
	if err != nil {
		return nil, fmt.Errorf("lock balances: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked balances: %w", err)
	}
	return accounts, nil
}

// UpdateBalance writes the cached balance and bumps the version. The
// caller must already hold the row lock.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE balances SET balance = $1, version = version + 1, updated_at = NOW() WHERE account_id = $2`

	tag, err := tx.Exec(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance row not found: %s", accountID)
	}
	return nil
}

// canonicalOrder deduplicates and sorts ids ascending by unsigned
// lexicographic byte order.
func canonicalOrder(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})
	return ordered
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.ExternalID, &a.Kind, &a.AssetTypeID, &a.AssetCode, &a.DisplayName,
		&a.Active, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func scanAccountRow(rows pgx.Rows) (*domain.Account, error) {
	a := &domain.Account{}
	err := rows.Scan(
		&a.ID, &a.ExternalID, &a.Kind, &a.AssetTypeID, &a.AssetCode, &a.DisplayName,
		&a.Active, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	return a, nil
}
