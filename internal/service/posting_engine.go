package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PostingEngine implements the double-entry posting primitive: one
// debit entry, one credit entry, two balance-cache updates, all within
// the caller's session. The entries of a posting always sum to zero.
type PostingEngine struct {
	accountRepo ports.AccountRepository
	entryRepo   ports.EntryRepository
}

// NewPostingEngine creates a new PostingEngine.
func NewPostingEngine(accountRepo ports.AccountRepository, entryRepo ports.EntryRepository) *PostingEngine {
	return &PostingEngine{accountRepo: accountRepo, entryRepo: entryRepo}
}

// Post moves magnitude from debit to credit. Both accounts must carry
// current balances loaded under row locks. USER debit accounts are
// never permitted to go negative, checked before any insert.
// Returns the resulting balances of the debit and credit accounts.
func (p *PostingEngine) Post(
	ctx context.Context,
	tx pgx.Tx,
	transactionID uuid.UUID,
	debit, credit *domain.Account,
	magnitude decimal.Decimal,
	assetTypeID uuid.UUID,
) (decimal.Decimal, decimal.Decimal, error) {
	if reason, ok := domain.ValidateMagnitude(magnitude); !ok {
		return decimal.Zero, decimal.Zero, apperror.Validation(reason)
	}
	if debit.AssetTypeID != assetTypeID || credit.AssetTypeID != assetTypeID {
		return decimal.Zero, decimal.Zero, apperror.ErrAssetMismatch()
	}

	debitAfter := debit.Balance.Sub(magnitude)
	if !debit.CanGoNegative() && debitAfter.IsNegative() {
		return decimal.Zero, decimal.Zero, apperror.ErrInsufficientBalance()
	}
	creditAfter := credit.Balance.Add(magnitude)

	now := time.Now().UTC()

	// Positive amount: value leaves the debit account.
	debitEntry := &domain.Entry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AccountID:     debit.ID,
		AssetTypeID:   assetTypeID,
		Amount:        magnitude,
		BalanceAfter:  debitAfter,
		CreatedAt:     now,
	}
	// Negative amount: value arrives at the credit account.
	creditEntry := &domain.Entry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AccountID:     credit.ID,
		AssetTypeID:   assetTypeID,
		Amount:        magnitude.Neg(),
		BalanceAfter:  creditAfter,
		CreatedAt:     now,
	}

	if err := p.entryRepo.Create(ctx, tx, debitEntry); err != nil {
		return decimal.Zero, decimal.Zero, apperror.InternalError(fmt.Errorf("append debit entry: %w", err))
	}
	if err := p.entryRepo.Create(ctx, tx, creditEntry); err != nil {
		return decimal.Zero, decimal.Zero, apperror.InternalError(fmt.Errorf("append credit entry: %w", err))
	}
	if err := p.accountRepo.UpdateBalance(ctx, tx, debit.ID, debitAfter); err != nil {
		return decimal.Zero, decimal.Zero, apperror.InternalError(fmt.Errorf("update debit balance: %w", err))
	}
	if err := p.accountRepo.UpdateBalance(ctx, tx, credit.ID, creditAfter); err != nil {
		return decimal.Zero, decimal.Zero, apperror.InternalError(fmt.Errorf("update credit balance: %w", err))
	}

	return debitAfter, creditAfter, nil
}
