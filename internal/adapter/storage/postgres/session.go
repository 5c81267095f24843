package postgres

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"wallet-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes the session wrapper treats as transient.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const maxBackoff = 2 * time.Second

// Session implements ports.Sessioner: a scoped serializable transaction
// with retry on transient conflicts. A single logical request executes
// entirely within one session.
type Session struct {
	pool       Pool
	maxRetries int
	log        zerolog.Logger
}

// NewSession creates a Session runner. maxRetries bounds re-execution
// of the body after a serialization failure or deadlock.
func NewSession(pool Pool, maxRetries int, log zerolog.Logger) *Session {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Session{pool: pool, maxRetries: maxRetries, log: log}
}

// WithSession opens a serializable transaction, runs fn, commits on
// normal return and rolls back on any error. The body is re-executed on
// serialization failure or deadlock up to maxRetries times with
// exponential backoff; all other errors propagate after rollback.
func (s *Session) WithSession(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt-1)); err != nil {
				return apperror.ErrStoreUnavailable(err)
			}
			s.log.Warn().
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying session after transient conflict")
		}

		err := s.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
	}
	return apperror.ErrStoreUnavailable(lastErr)
}

func (s *Session) run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperror.ErrStoreUnavailable(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// isTransient reports whether err denotes a serialization failure or a
// deadlock, the only two conditions the wrapper swallows.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

// backoff computes min(50*2^attempt + jitter, 2000) milliseconds.
func backoff(attempt int) time.Duration {
	d := time.Duration(50<<uint(attempt))*time.Millisecond +
		time.Duration(rand.Intn(50))*time.Millisecond
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
