package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ledgerStore is a shared in-memory backing store for the fake repos.
// A single RWMutex guards the maps; session serializability is handled
// separately by inMemorySessioner.
type ledgerStore struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*domain.Account
	transactions map[uuid.UUID]*domain.Transaction
	entries      []domain.Entry
	idempotency  map[string]*domain.IdempotencyRecord
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{
		accounts:     make(map[uuid.UUID]*domain.Account),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		idempotency:  make(map[string]*domain.IdempotencyRecord),
	}
}

func (s *ledgerStore) addAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
}

// --- In-Memory Sessioner ---

// inMemorySessioner serializes all sessions behind one mutex, the
// strongest possible interleaving guarantee. The serializable-isolation
// retry path never fires because conflicts cannot happen.
type inMemorySessioner struct {
	sessionMu sync.Mutex
}

func (s *inMemorySessioner) WithSession(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return fn(ctx, nil)
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	store *ledgerStore
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[id]
	if !ok || !a.Active {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByIDInSession(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryAccountRepo) GetByExternalID(ctx context.Context, tx pgx.Tx, externalID string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, a := range r.store.accounts {
		if a.ExternalID != nil && *a.ExternalID == externalID && a.Active {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) LockBalances(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{}, len(ids))
	var accounts []domain.Account
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := r.store.accounts[id]; ok && a.Active {
			accounts = append(accounts, *a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID.String() < accounts[j].ID.String()
	})
	return accounts, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountID]
	if !ok {
		return fmt.Errorf("balance row not found: %s", accountID)
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	store *ledgerStore
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.transactions {
		if existing.Reference == t.Reference {
			return apperror.ErrDuplicateReference()
		}
	}
	cp := *t
	r.store.transactions[t.ID] = &cp
	return nil
}

// --- In-Memory Entry Repo ---

type inMemoryEntryRepo struct {
	store *ledgerStore
}

func (r *inMemoryEntryRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, *e)
	return nil
}

func (r *inMemoryEntryRepo) History(ctx context.Context, params ports.HistoryParams) ([]ports.HistoryItem, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Newest first: walk the journal backwards.
	var matched []ports.HistoryItem
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		e := r.store.entries[i]
		if e.AccountID != params.AccountID {
			continue
		}
		t, ok := r.store.transactions[e.TransactionID]
		if !ok {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		matched = append(matched, ports.HistoryItem{
			Entry:       e,
			Type:        t.Type,
			Reference:   t.Reference,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		})
	}
	total := int64(len(matched))

	if params.Offset >= len(matched) {
		return []ports.HistoryItem{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func (r *inMemoryEntryRepo) JournalSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range r.store.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	store *ledgerStore
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, tx pgx.Tx, reference string) (*domain.IdempotencyRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.idempotency[reference]
	if !ok || !rec.Live(time.Now()) {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.idempotency[rec.Reference]; ok {
		return nil // first writer wins
	}
	cp := *rec
	r.store.idempotency[rec.Reference] = &cp
	return nil
}
