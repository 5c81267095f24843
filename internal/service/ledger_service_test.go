package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testRetention = 24 * time.Hour

type ledgerTestDeps struct {
	svc         *LedgerServiceImpl
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	entryRepo   *mocks.MockEntryRepository
	idempRepo   *mocks.MockIdempotencyRepository
	idempCache  *mocks.MockIdempotencyCache
	session     *mocks.MockSessioner
	ctrl        *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		entryRepo:   mocks.NewMockEntryRepository(ctrl),
		idempRepo:   mocks.NewMockIdempotencyRepository(ctrl),
		idempCache:  mocks.NewMockIdempotencyCache(ctrl),
		session:     mocks.NewMockSessioner(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewLedgerService(
		d.accountRepo, d.txRepo, d.entryRepo, d.idempRepo,
		d.idempCache, d.session, testRetention, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// decimalEq matches decimals by value, ignoring exponent representation.
type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return "decimal " + m.want.String() }

func decimalEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

// passSession makes the mocked session run the body against tx, the
// way a committed single-attempt session would.
func passSession(d *ledgerTestDeps, ctx context.Context, tx pgx.Tx) {
	d.session.EXPECT().WithSession(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return fn(ctx, tx)
		})
}

func userAccount(balance string) *domain.Account {
	return &domain.Account{
		ID:          uuid.New(),
		Kind:        domain.AccountKindUser,
		AssetTypeID: uuid.New(),
		AssetCode:   "DIAMOND",
		DisplayName: "alice",
		Active:      true,
		Balance:     decimal.RequireFromString(balance),
		Version:     3,
	}
}

func systemAccount(externalID string, assetTypeID uuid.UUID, balance string) *domain.Account {
	return &domain.Account{
		ID:          uuid.New(),
		ExternalID:  &externalID,
		Kind:        domain.AccountKindSystem,
		AssetTypeID: assetTypeID,
		AssetCode:   "DIAMOND",
		Active:      true,
		Balance:     decimal.RequireFromString(balance),
	}
}

// ==================== Movement Flow Tests ====================

func TestLedgerService_TopUp_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("500")
	treasury := systemAccount("SYS_TREASURY_DIAMOND", user.AssetTypeID, "-10000")

	req := ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("100.5"),
		ReferenceID: "TOPUP-001",
	}

	d.idempCache.EXPECT().Get(ctx, "TOPUP-001").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "TOPUP-001").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_TREASURY_DIAMOND").Return(treasury, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, []uuid.UUID{user.ID, treasury.ID}).
		Return([]domain.Account{*user, *treasury}, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	var entries []*domain.Entry
	d.entryRepo.EXPECT().Create(ctx, tx, gomock.Any()).Times(2).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, e *domain.Entry) error {
			entries = append(entries, e)
			return nil
		})
	// Treasury debited, user credited.
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, treasury.ID, decimalEq("-10100.5")).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, user.ID, decimalEq("600.5")).Return(nil)

	var stored *domain.IdempotencyRecord
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, rec *domain.IdempotencyRecord) error {
			stored = rec
			return nil
		})
	d.idempCache.EXPECT().Set(ctx, "TOPUP-001", gomock.Any(), testRetention).Return(nil)

	result, err := d.svc.TopUp(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionTypeTopUp, result.Type)
	assert.Equal(t, user.ID, result.AccountID)
	assert.False(t, result.Idempotent)
	assert.True(t, result.BalanceAfter.Equal(decimal.RequireFromString("600.5")))

	// The two journal entries of a posting sum to exactly zero.
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Add(entries[1].Amount).IsZero())
	assert.Equal(t, treasury.ID, entries[0].AccountID)
	assert.Equal(t, user.ID, entries[1].AccountID)

	require.NotNil(t, stored)
	assert.Equal(t, "TOPUP-001", stored.Reference)
	assert.Equal(t, 201, stored.Status)
	assert.True(t, stored.Live(time.Now()))
}

func TestLedgerService_TopUp_RedisReplay(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	original := &ports.MovementResult{
		TransactionID: uuid.New(),
		ReferenceID:   "TOPUP-001",
		Type:          domain.TransactionTypeTopUp,
		AccountID:     uuid.New(),
		Amount:        decimal.RequireFromString("100"),
		BalanceAfter:  decimal.RequireFromString("600"),
	}
	body, err := json.Marshal(original)
	require.NoError(t, err)

	d.idempCache.EXPECT().Get(ctx, "TOPUP-001").Return(body, nil)
	// No session is opened on a cache hit.

	result, err := d.svc.TopUp(ctx, ports.MovementRequest{
		AccountID:   original.AccountID,
		Amount:      decimal.RequireFromString("100"),
		ReferenceID: "TOPUP-001",
	})
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, original.TransactionID, result.TransactionID)
	assert.True(t, result.BalanceAfter.Equal(original.BalanceAfter))
}

func TestLedgerService_TopUp_StoreReplay(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	original := &ports.MovementResult{
		TransactionID: uuid.New(),
		ReferenceID:   "TOPUP-001",
		Type:          domain.TransactionTypeTopUp,
		AccountID:     uuid.New(),
		Amount:        decimal.RequireFromString("100"),
		BalanceAfter:  decimal.RequireFromString("600"),
	}
	body, err := json.Marshal(original)
	require.NoError(t, err)

	d.idempCache.EXPECT().Get(ctx, "TOPUP-001").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "TOPUP-001").Return(&domain.IdempotencyRecord{
		Reference: "TOPUP-001",
		Status:    201,
		Body:      body,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	// A replayed result is not re-cached.

	result, err := d.svc.TopUp(ctx, ports.MovementRequest{
		AccountID:   original.AccountID,
		Amount:      decimal.RequireFromString("100"),
		ReferenceID: "TOPUP-001",
	})
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, original.TransactionID, result.TransactionID)
}

func TestLedgerService_TopUp_RedisDown_FallsThrough(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("0")
	treasury := systemAccount("SYS_TREASURY_DIAMOND", user.AssetTypeID, "0")

	d.idempCache.EXPECT().Get(ctx, "TOPUP-002").Return(nil, assert.AnError)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "TOPUP-002").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_TREASURY_DIAMOND").Return(treasury, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, gomock.Any()).
		Return([]domain.Account{*user, *treasury}, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.entryRepo.EXPECT().Create(ctx, tx, gomock.Any()).Times(2).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Times(2).Return(nil)
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(ctx, "TOPUP-002", gomock.Any(), testRetention).Return(assert.AnError)

	result, err := d.svc.TopUp(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("10"),
		ReferenceID: "TOPUP-002",
	})
	require.NoError(t, err)
	assert.False(t, result.Idempotent)
}

func TestLedgerService_Movement_InvalidAmounts(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	cases := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"too large", "10000000.00000001"},
		{"too many fractional digits", "1.000000001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.svc.TopUp(context.Background(), ports.MovementRequest{
				AccountID:   uuid.New(),
				Amount:      decimal.RequireFromString(tc.amount),
				ReferenceID: "REF-1",
			})
			require.Error(t, err)
			appErr, ok := err.(*apperror.AppError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestLedgerService_Movement_SmallestAmountAccepted(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("1")
	treasury := systemAccount("SYS_TREASURY_DIAMOND", user.AssetTypeID, "0")

	d.idempCache.EXPECT().Get(ctx, "TINY-1").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "TINY-1").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_TREASURY_DIAMOND").Return(treasury, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, gomock.Any()).
		Return([]domain.Account{*user, *treasury}, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.entryRepo.EXPECT().Create(ctx, tx, gomock.Any()).Times(2).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Times(2).Return(nil)
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(ctx, "TINY-1", gomock.Any(), testRetention).Return(nil)

	result, err := d.svc.TopUp(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("0.00000001"),
		ReferenceID: "TINY-1",
	})
	require.NoError(t, err)
	assert.True(t, result.BalanceAfter.Equal(decimal.RequireFromString("1.00000001")))
}

func TestLedgerService_Movement_MissingReference(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Spend(context.Background(), ports.MovementRequest{
		AccountID: uuid.New(),
		Amount:    decimal.RequireFromString("10"),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestLedgerService_Movement_AccountNotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	accountID := uuid.New()

	d.idempCache.EXPECT().Get(ctx, "REF-404").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "REF-404").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, accountID).Return(nil, nil)

	_, err := d.svc.TopUp(ctx, ports.MovementRequest{
		AccountID:   accountID,
		Amount:      decimal.RequireFromString("10"),
		ReferenceID: "REF-404",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", appErr.Code)
}

func TestLedgerService_Movement_SystemAccountMissing(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("100")

	d.idempCache.EXPECT().Get(ctx, "REF-CFG").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "REF-CFG").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_BONUS_DIAMOND").Return(nil, nil)

	_, err := d.svc.Bonus(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("10"),
		ReferenceID: "REF-CFG",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFIGURATION_ERROR", appErr.Code)
}

func TestLedgerService_Movement_AssetMismatch(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("100")
	// Counterparty carries a different asset type.
	revenue := systemAccount("SYS_REVENUE_DIAMOND", uuid.New(), "0")

	d.idempCache.EXPECT().Get(ctx, "REF-MIX").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "REF-MIX").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_REVENUE_DIAMOND").Return(revenue, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, gomock.Any()).
		Return([]domain.Account{*user, *revenue}, nil)

	_, err := d.svc.Spend(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("10"),
		ReferenceID: "REF-MIX",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "ASSET_MISMATCH", appErr.Code)
}

func TestLedgerService_Spend_ExactBalance(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("150")
	revenue := systemAccount("SYS_REVENUE_DIAMOND", user.AssetTypeID, "9000")

	d.idempCache.EXPECT().Get(ctx, "SPEND-ALL").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "SPEND-ALL").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_REVENUE_DIAMOND").Return(revenue, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, gomock.Any()).
		Return([]domain.Account{*user, *revenue}, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.entryRepo.EXPECT().Create(ctx, tx, gomock.Any()).Times(2).Return(nil)
	// Spending to an exact zero balance is allowed.
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, user.ID, decimalEq("0")).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, revenue.ID, decimalEq("9150")).Return(nil)
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(ctx, "SPEND-ALL", gomock.Any(), testRetention).Return(nil)

	result, err := d.svc.Spend(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("150"),
		ReferenceID: "SPEND-ALL",
	})
	require.NoError(t, err)
	assert.True(t, result.BalanceAfter.IsZero())
}

func TestLedgerService_Spend_InsufficientBalance(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := userAccount("150")
	revenue := systemAccount("SYS_REVENUE_DIAMOND", user.AssetTypeID, "0")

	d.idempCache.EXPECT().Get(ctx, "SPEND-OVER").Return(nil, nil)
	passSession(d, ctx, tx)
	d.idempRepo.EXPECT().Get(ctx, tx, "SPEND-OVER").Return(nil, nil)
	d.accountRepo.EXPECT().GetByIDInSession(ctx, tx, user.ID).Return(user, nil)
	d.accountRepo.EXPECT().GetByExternalID(ctx, tx, "SYS_REVENUE_DIAMOND").Return(revenue, nil)
	d.accountRepo.EXPECT().LockBalances(ctx, tx, gomock.Any()).
		Return([]domain.Account{*user, *revenue}, nil)
	// The smallest representable overdraft is rejected before any
	// record is appended.

	_, err := d.svc.Spend(ctx, ports.MovementRequest{
		AccountID:   user.ID,
		Amount:      decimal.RequireFromString("150.00000001"),
		ReferenceID: "SPEND-OVER",
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_BALANCE", appErr.Code)
}

// ==================== Query Tests ====================

func TestLedgerService_Balance_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	acc := userAccount("123.45")

	d.accountRepo.EXPECT().GetByID(ctx, acc.ID).Return(acc, nil)

	snap, err := d.svc.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, snap.AccountID)
	assert.Equal(t, "DIAMOND", snap.AssetCode)
	assert.True(t, snap.Balance.Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, int64(3), snap.Version)
}

func TestLedgerService_Balance_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	d.accountRepo.EXPECT().GetByID(ctx, accountID).Return(nil, nil)

	_, err := d.svc.Balance(ctx, accountID)
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", appErr.Code)
}

func TestLedgerService_History_NegatesStoredAmounts(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	acc := userAccount("600")
	txID := uuid.New()

	d.accountRepo.EXPECT().GetByID(ctx, acc.ID).Return(acc, nil)
	d.entryRepo.EXPECT().History(ctx, gomock.Any()).Return([]ports.HistoryItem{
		{
			Entry: domain.Entry{
				TransactionID: txID,
				AccountID:     acc.ID,
				Amount:        decimal.RequireFromString("-100"), // credit as stored
				BalanceAfter:  decimal.RequireFromString("600"),
			},
			Type:      domain.TransactionTypeTopUp,
			Reference: "TOPUP-001",
		},
		{
			Entry: domain.Entry{
				TransactionID: uuid.New(),
				AccountID:     acc.ID,
				Amount:        decimal.RequireFromString("40"), // debit as stored
				BalanceAfter:  decimal.RequireFromString("560"),
			},
			Type:      domain.TransactionTypeSpend,
			Reference: "SPEND-001",
		},
	}, int64(2), nil)

	page, err := d.svc.History(ctx, ports.HistoryParams{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, defaultHistoryLimit, page.Limit)
	require.Len(t, page.Items, 2)
	// Income shows positive, spending negative.
	assert.True(t, page.Items[0].Amount.Equal(decimal.RequireFromString("100")))
	assert.True(t, page.Items[1].Amount.Equal(decimal.RequireFromString("-40")))
	assert.Equal(t, txID, page.Items[0].TransactionID)
}

func TestLedgerService_History_InvalidPagination(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.History(context.Background(), ports.HistoryParams{
		AccountID: uuid.New(),
		Limit:     101,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = d.svc.History(context.Background(), ports.HistoryParams{
		AccountID: uuid.New(),
		Offset:    -1,
	})
	require.Error(t, err)
}

func TestLedgerService_Audit_Consistent(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	acc := userAccount("600.5")

	d.accountRepo.EXPECT().GetByID(ctx, acc.ID).Return(acc, nil)
	// Stored journal sum is the negation of the balance.
	d.entryRepo.EXPECT().JournalSum(ctx, acc.ID).Return(decimal.RequireFromString("-600.5"), nil)

	report, err := d.svc.Audit(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, report.IsConsistent)
	assert.True(t, report.Discrepancy.IsZero())
	assert.True(t, report.JournalBalance.Equal(decimal.RequireFromString("600.5")))
}

func TestLedgerService_Audit_Discrepancy(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	acc := userAccount("600")

	d.accountRepo.EXPECT().GetByID(ctx, acc.ID).Return(acc, nil)
	d.entryRepo.EXPECT().JournalSum(ctx, acc.ID).Return(decimal.RequireFromString("-599"), nil)

	report, err := d.svc.Audit(ctx, acc.ID)
	require.NoError(t, err)
	assert.False(t, report.IsConsistent)
	assert.True(t, report.Discrepancy.Equal(decimal.RequireFromString("1")))
}

func TestLedgerService_Audit_WithinTolerance(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	acc := userAccount("600")

	d.accountRepo.EXPECT().GetByID(ctx, acc.ID).Return(acc, nil)
	d.entryRepo.EXPECT().JournalSum(ctx, acc.ID).Return(decimal.RequireFromString("-600.00000001"), nil)

	report, err := d.svc.Audit(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, report.IsConsistent)
}
