package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Get fetches a live idempotency record by reference within the
// session. Expired records are ignored; they are garbage-collected
// out-of-band.
func (r *IdempotencyRepo) Get(ctx context.Context, tx pgx.Tx, reference string) (*domain.IdempotencyRecord, error) {
	query := `SELECT reference, status, body, created_at, expires_at
		FROM idempotency_records WHERE reference = $1 AND expires_at > NOW()`

	rec := &domain.IdempotencyRecord{}
	err := tx.QueryRow(ctx, query, reference).Scan(
		&rec.Reference, &rec.Status, &rec.Body, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

// Create inserts an idempotency record within the session. First
// writer wins: a key collision is a no-op.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (reference, status, body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (reference) DO NOTHING`

	_, err := tx.Exec(ctx, query, rec.Reference, rec.Status, rec.Body, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
