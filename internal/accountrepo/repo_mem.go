// Package accountrepo manages the in-memory ledger of simulated bank accounts.
package accountrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ledgerAccount struct {
	mu      sync.Mutex
	account domain.Account
}

func (la *ledgerAccount) snapshot() domain.Account {
	la.mu.Lock()
	defer la.mu.Unlock()

	return la.account.Clone()
}

// RepoMem facilitates ledger repository layer logic.
//
// The registry lock only guards the account map. Balance changes take the
// lock of the touched account, so movements on different accounts proceed
// concurrently.
type RepoMem struct {
	mu             sync.RWMutex
	accounts       map[string]*ledgerAccount
	openingBalance decimal.Decimal
	now            func() time.Time
}

// NewRepoMem returns an empty ledger. Lazily created accounts start with openingBalance.
func NewRepoMem(openingBalance decimal.Decimal) *RepoMem {
	return &RepoMem{
		accounts:       make(map[string]*ledgerAccount),
		openingBalance: openingBalance,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (r *RepoMem) newAccount(id domain.AccountIdentity, balance decimal.Decimal) *ledgerAccount {
	now := r.now()

	return &ledgerAccount{
		account: domain.Account{
			ID:        id.ID,
			Holder:    id.Holder,
			Currency:  id.Currency,
			Balance:   balance,
			CreatedAt: now,
			Transactions: []domain.AccountEntry{{
				Type:         domain.EntryOpening,
				Amount:       balance,
				BalanceAfter: balance,
				Description:  "Opening balance",
				Timestamp:    now,
			}},
		},
	}
}

// GetOrCreate returns the account with the identity's id, creating it with the
// default opening balance on first reference.
func (r *RepoMem) GetOrCreate(ctx context.Context, id domain.AccountIdentity) (domain.Account, error) {
	if id.ID == "" {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	r.mu.RLock()
	la, ok := r.accounts[id.ID]
	r.mu.RUnlock()

	if ok {
		return la.snapshot(), nil
	}

	r.mu.Lock()
	la, ok = r.accounts[id.ID]
	if !ok {
		la = r.newAccount(id, r.openingBalance)
		r.accounts[id.ID] = la

		zerolog.Ctx(ctx).Debug().Str("account_id", id.ID).Msg("account opened")
	}
	r.mu.Unlock()

	return la.snapshot(), nil
}

// Open creates the account with an explicit opening balance.
func (r *RepoMem) Open(ctx context.Context, id domain.AccountIdentity, balance decimal.Decimal) (domain.Account, error) {
	if balance.IsNegative() {
		return domain.Account{}, domain.ErrNonPositiveAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id.ID]; ok {
		return domain.Account{}, domain.ErrAccountExists
	}

	la := r.newAccount(id, balance)
	r.accounts[id.ID] = la

	zerolog.Ctx(ctx).Debug().Str("account_id", id.ID).Str("balance", balance.StringFixed(2)).Msg("account opened")

	return la.account.Clone(), nil
}

func (r *RepoMem) lookup(id string) (*ledgerAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	la, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return la, nil
}

// Get returns a copy of the account with the given id.
func (r *RepoMem) Get(ctx context.Context, id string) (domain.Account, error) {
	la, err := r.lookup(id)
	if err != nil {
		return domain.Account{}, err
	}

	return la.snapshot(), nil
}

// List returns copies of all accounts ordered by id.
func (r *RepoMem) List(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	all := make([]*ledgerAccount, 0, len(r.accounts))
	for _, la := range r.accounts {
		all = append(all, la)
	}
	r.mu.RUnlock()

	res := make([]domain.Account, 0, len(all))
	for _, la := range all {
		res = append(res, la.snapshot())
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res, nil
}

// Debit takes amount from the account. It fails with ErrInsufficientFunds
// and leaves the account untouched when the balance does not cover it.
func (r *RepoMem) Debit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error) {
	if !amount.IsPositive() {
		return domain.AccountEntry{}, domain.ErrNonPositiveAmount
	}

	return r.apply(ctx, id, amount.Neg(), domain.EntryDebit, transferID, description)
}

// Credit adds amount to the account.
func (r *RepoMem) Credit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error) {
	if !amount.IsPositive() {
		return domain.AccountEntry{}, domain.ErrNonPositiveAmount
	}

	return r.apply(ctx, id, amount, domain.EntryCredit, transferID, description)
}

func (r *RepoMem) apply(ctx context.Context, id string, delta decimal.Decimal, typ domain.EntryType, transferID, description string) (domain.AccountEntry, error) {
	l := zerolog.Ctx(ctx)

	la, err := r.lookup(id)
	if err != nil {
		l.Error().Err(err).Str("account_id", id).Send()
		return domain.AccountEntry{}, err
	}

	la.mu.Lock()
	defer la.mu.Unlock()

	balance := la.account.Balance.Add(delta)
	if balance.IsNegative() {
		l.Info().
			Str("account_id", id).
			Str("balance", la.account.Balance.StringFixed(2)).
			Str("amount", delta.Neg().StringFixed(2)).
			Msg("debit refused")

		return domain.AccountEntry{}, domain.ErrInsufficientFunds
	}

	e := domain.AccountEntry{
		Type:         typ,
		Amount:       delta,
		BalanceAfter: balance,
		TransferID:   transferID,
		Description:  description,
		Timestamp:    r.now(),
	}

	la.account.Balance = balance
	la.account.Transactions = append(la.account.Transactions, e)

	return e, nil
}
