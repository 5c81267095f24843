package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	body := []byte(`{"transaction_id":"x"}`)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT reference, status, body").
		WithArgs("TOPUP-001").
		WillReturnRows(pgxmock.NewRows([]string{"reference", "status", "body", "created_at", "expires_at"}).
			AddRow("TOPUP-001", 201, body, now, now.Add(24*time.Hour)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	rec, err := repo.Get(context.Background(), tx, "TOPUP-001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "TOPUP-001", rec.Reference)
	assert.Equal(t, 201, rec.Status)
	assert.Equal(t, body, rec.Body)
	assert.True(t, rec.Live(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT reference, status, body").
		WithArgs("MISSING").
		WillReturnRows(pgxmock.NewRows([]string{"reference", "status", "body", "created_at", "expires_at"}))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	rec, err := repo.Get(context.Background(), tx, "MISSING")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := &domain.IdempotencyRecord{
		Reference: "TOPUP-001",
		Status:    201,
		Body:      []byte(`{}`),
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_records").
		WithArgs(rec.Reference, rec.Status, rec.Body, rec.CreatedAt, rec.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Create_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	now := time.Now().UTC()
	rec := &domain.IdempotencyRecord{
		Reference: "TOPUP-001",
		Status:    201,
		Body:      []byte(`{}`),
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	mock.ExpectBegin()
	// ON CONFLICT DO NOTHING: zero rows affected is still success.
	mock.ExpectExec("INSERT INTO idempotency_records").
		WithArgs(rec.Reference, rec.Status, rec.Body, rec.CreatedAt, rec.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
