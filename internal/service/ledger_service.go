package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// auditTolerance is the absolute tolerance of the audit comparison.
// Amounts are exact decimals end to end; the tolerance only guards
// against storage engines that aggregate NUMERIC inexactly.
var auditTolerance = decimal.New(1, -8)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	entryRepo   ports.EntryRepository
	idempRepo   ports.IdempotencyRepository
	idempCache  ports.IdempotencyCache
	posting     *PostingEngine
	session     ports.Sessioner
	retention   time.Duration
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	entryRepo ports.EntryRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	session ports.Sessioner,
	retention time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		entryRepo:   entryRepo,
		idempRepo:   idempRepo,
		idempCache:  idempCache,
		posting:     NewPostingEngine(accountRepo, entryRepo),
		session:     session,
		retention:   retention,
		log:         log,
	}
}

// TopUp credits purchased value from the treasury to a user account.
func (s *LedgerServiceImpl) TopUp(ctx context.Context, req ports.MovementRequest) (*ports.MovementResult, error) {
	return s.execute(ctx, domain.TransactionTypeTopUp, req)
}

// Bonus credits gratis value from the bonus pool to a user account.
func (s *LedgerServiceImpl) Bonus(ctx context.Context, req ports.MovementRequest) (*ports.MovementResult, error) {
	return s.execute(ctx, domain.TransactionTypeBonus, req)
}

// Spend debits a user account into the revenue account.
func (s *LedgerServiceImpl) Spend(ctx context.Context, req ports.MovementRequest) (*ports.MovementResult, error) {
	return s.execute(ctx, domain.TransactionTypeSpend, req)
}

// execute runs the uniform flow algorithm. The three flows differ only
// in the counterparty account's role and the debit/credit assignment.
func (s *LedgerServiceImpl) execute(ctx context.Context, typ domain.TransactionType, req ports.MovementRequest) (*ports.MovementResult, error) {
	if reason, ok := domain.ValidateMagnitude(req.Amount); !ok {
		return nil, apperror.Validation(reason)
	}
	if req.ReferenceID == "" {
		return nil, apperror.Validation("referenceId is required")
	}

	// Layer 1: Redis fast path. A replay of a completed request does
	// not contend for hot accounts, or even open a session.
	cached, err := s.idempCache.Get(ctx, req.ReferenceID)
	if err != nil {
		s.log.Warn().Err(err).Str("reference", req.ReferenceID).Msg("redis idempotency check failed, falling through to store")
	}
	if cached != nil {
		return unmarshalReplay(cached)
	}

	var result *ports.MovementResult
	var respBody []byte

	err = s.session.WithSession(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Layer 2: authoritative idempotency record, checked before
		// any lock is acquired.
		rec, err := s.idempRepo.Get(ctx, tx, req.ReferenceID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("idempotency check: %w", err))
		}
		if rec != nil {
			replay, err := unmarshalReplay(rec.Body)
			if err != nil {
				return err
			}
			result = replay
			return nil
		}

		// Learn the user account's asset, then resolve the system
		// counterparty by its well-known external id.
		user, err := s.accountRepo.GetByIDInSession(ctx, tx, req.AccountID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("resolve account: %w", err))
		}
		if user == nil {
			return apperror.ErrAccountNotFound()
		}

		extID := counterpartyExternalID(typ, user.AssetCode)
		system, err := s.accountRepo.GetByExternalID(ctx, tx, extID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("resolve system account: %w", err))
		}
		if system == nil {
			return apperror.ErrSystemAccountMissing(extID)
		}

		// Lock both balance rows in one batched call; canonical
		// ordering inside LockBalances rules out deadlock cycles.
		locked, err := s.accountRepo.LockBalances(ctx, tx, []uuid.UUID{user.ID, system.ID})
		if err != nil {
			return apperror.InternalError(fmt.Errorf("lock accounts: %w", err))
		}
		userAcc := findAccount(locked, user.ID)
		sysAcc := findAccount(locked, system.ID)
		if userAcc == nil {
			return apperror.ErrAccountNotFound()
		}
		if sysAcc == nil {
			return apperror.ErrSystemAccountMissing(extID)
		}
		if userAcc.AssetTypeID != sysAcc.AssetTypeID {
			return apperror.ErrAssetMismatch()
		}

		debit, credit := assignRoles(typ, userAcc, sysAcc)

		// Early check for spend so no records are appended first.
		if typ == domain.TransactionTypeSpend && userAcc.Balance.LessThan(req.Amount) {
			return apperror.ErrInsufficientBalance()
		}

		// Identifiers and timestamps are generated inside the body so
		// each retry attempt is self-consistent.
		now := time.Now().UTC()
		txn := &domain.Transaction{
			ID:          uuid.New(),
			Type:        typ,
			Reference:   req.ReferenceID,
			Description: req.Description,
			Metadata:    req.Metadata,
			CreatedAt:   now,
		}
		if err := s.txRepo.Create(ctx, tx, txn); err != nil {
			return err
		}

		debitAfter, creditAfter, err := s.posting.Post(ctx, tx, txn.ID, debit, credit, req.Amount, userAcc.AssetTypeID)
		if err != nil {
			return err
		}

		userAfter := creditAfter
		if typ == domain.TransactionTypeSpend {
			userAfter = debitAfter
		}

		result = &ports.MovementResult{
			TransactionID: txn.ID,
			ReferenceID:   txn.Reference,
			Type:          typ,
			AccountID:     userAcc.ID,
			Amount:        req.Amount,
			BalanceAfter:  userAfter,
			Description:   req.Description,
			CreatedAt:     now,
		}

		respBody, err = json.Marshal(result)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		return s.idempRepo.Create(ctx, tx, &domain.IdempotencyRecord{
			Reference: req.ReferenceID,
			Status:    http.StatusCreated,
			Body:      respBody,
			CreatedAt: now,
			ExpiresAt: now.Add(s.retention),
		})
	})
	if err != nil {
		return nil, err
	}

	if !result.Idempotent {
		// Post-commit, best-effort.
		if err := s.idempCache.Set(ctx, req.ReferenceID, respBody, s.retention); err != nil {
			s.log.Warn().Err(err).Str("reference", req.ReferenceID).Msg("failed to cache idempotent response")
		}
		s.log.Info().
			Str("tx_id", result.TransactionID.String()).
			Str("type", string(typ)).
			Str("account_id", result.AccountID.String()).
			Str("amount", req.Amount.String()).
			Msg("movement posted")
	}

	return result, nil
}

// Balance returns the cached balance snapshot for an active account.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (*ports.BalanceSnapshot, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return &ports.BalanceSnapshot{
		AccountID: acc.ID,
		AssetCode: acc.AssetCode,
		Balance:   acc.Balance,
		Version:   acc.Version,
		UpdatedAt: acc.UpdatedAt,
	}, nil
}

// History returns a page of journal entries with user-facing amounts:
// the stored amount negated, so income shows positive.
func (s *LedgerServiceImpl) History(ctx context.Context, params ports.HistoryParams) (*ports.HistoryPage, error) {
	if params.Limit <= 0 {
		params.Limit = defaultHistoryLimit
	}
	if params.Limit > maxHistoryLimit {
		return nil, apperror.Validation("limit must be between 1 and 100")
	}
	if params.Offset < 0 {
		return nil, apperror.Validation("offset must not be negative")
	}

	acc, err := s.accountRepo.GetByID(ctx, params.AccountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	items, total, err := s.entryRepo.History(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("query history: %w", err))
	}

	page := &ports.HistoryPage{
		Items:  make([]ports.HistoryEntry, 0, len(items)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, it := range items {
		page.Items = append(page.Items, ports.HistoryEntry{
			TransactionID: it.Entry.TransactionID,
			Type:          it.Type,
			Reference:     it.Reference,
			Amount:        it.Entry.Amount.Neg(),
			BalanceAfter:  it.Entry.BalanceAfter,
			Description:   it.Description,
			CreatedAt:     it.CreatedAt,
		})
	}
	return page, nil
}

// Audit recomputes the account balance from the journal and compares
// against the cache within an absolute tolerance of 1e-8.
func (s *LedgerServiceImpl) Audit(ctx context.Context, accountID uuid.UUID) (*ports.AuditReport, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	sum, err := s.entryRepo.JournalSum(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum journal: %w", err))
	}

	journalBalance := sum.Neg()
	discrepancy := acc.Balance.Sub(journalBalance)
	return &ports.AuditReport{
		AccountID:      accountID,
		CachedBalance:  acc.Balance,
		JournalBalance: journalBalance,
		Discrepancy:    discrepancy,
		IsConsistent:   discrepancy.Abs().LessThanOrEqual(auditTolerance),
	}, nil
}

// counterpartyExternalID maps a flow to the well-known external id of
// its system counterparty for the given asset.
func counterpartyExternalID(typ domain.TransactionType, assetCode string) string {
	switch typ {
	case domain.TransactionTypeTopUp:
		return domain.TreasuryExternalID(assetCode)
	case domain.TransactionTypeBonus:
		return domain.BonusPoolExternalID(assetCode)
	default:
		return domain.RevenueExternalID(assetCode)
	}
}

// assignRoles picks the debit (source) and credit (destination)
// accounts for a flow.
func assignRoles(typ domain.TransactionType, user, system *domain.Account) (debit, credit *domain.Account) {
	if typ == domain.TransactionTypeSpend {
		return user, system
	}
	return system, user
}

func findAccount(accounts []domain.Account, id uuid.UUID) *domain.Account {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}
	return nil
}

func unmarshalReplay(body []byte) (*ports.MovementResult, error) {
	res := &ports.MovementResult{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached response: %w", err))
	}
	res.Idempotent = true
	return res, nil
}
