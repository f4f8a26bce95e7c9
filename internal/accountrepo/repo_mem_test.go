package accountrepo

import (
	"context"
	"sync"
	"testing"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/currencypkg"
	"github.com/go-petr/lynx-wire/pkg/randompkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func randomIdentity() domain.AccountIdentity {
	return domain.AccountIdentity{
		ID:       randompkg.Digits(3) + "-" + randompkg.Digits(5) + "-" + randompkg.Digits(10),
		Holder:   randompkg.Owner(),
		Currency: currencypkg.CAD,
	}
}

func sumEntries(a domain.Account) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range a.Transactions {
		sum = sum.Add(e.Amount)
	}

	return sum
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.RequireFromString("10000.00"))
	id := randomIdentity()

	created, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id.ID, created.ID)
	require.Equal(t, id.Holder, created.Holder)
	require.Equal(t, "10000.00", created.Balance.StringFixed(2))
	require.Len(t, created.Transactions, 1)
	require.Equal(t, domain.EntryOpening, created.Transactions[0].Type)

	again, err := repo.GetOrCreate(ctx, domain.AccountIdentity{ID: id.ID, Holder: "someone else"})
	require.NoError(t, err)
	require.Equal(t, created.Holder, again.Holder)

	_, err = repo.GetOrCreate(ctx, domain.AccountIdentity{})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(100))
	id := randomIdentity()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetOrCreate(ctx, id)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Len(t, accounts[0].Transactions, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(100))
	id := randomIdentity()

	acc, err := repo.Open(ctx, id, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	require.Equal(t, "50.00", acc.Balance.StringFixed(2))

	_, err = repo.Open(ctx, id, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrAccountExists)

	_, err = repo.Open(ctx, randomIdentity(), decimal.NewFromInt(-1))
	require.ErrorIs(t, err, domain.ErrNonPositiveAmount)
}

func TestDebitCredit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(100))
	id := randomIdentity()

	_, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		apply       func() (domain.AccountEntry, error)
		wantErr     error
		wantBalance string
	}{
		{
			name: "Debit",
			apply: func() (domain.AccountEntry, error) {
				return repo.Debit(ctx, id.ID, decimal.RequireFromString("30.25"), "t1", "wire out")
			},
			wantBalance: "69.75",
		},
		{
			name: "Credit",
			apply: func() (domain.AccountEntry, error) {
				return repo.Credit(ctx, id.ID, decimal.RequireFromString("0.25"), "t2", "wire in")
			},
			wantBalance: "70.00",
		},
		{
			name: "InsufficientFunds",
			apply: func() (domain.AccountEntry, error) {
				return repo.Debit(ctx, id.ID, decimal.RequireFromString("70.01"), "t3", "wire out")
			},
			wantErr:     domain.ErrInsufficientFunds,
			wantBalance: "70.00",
		},
		{
			name: "ExactBalance",
			apply: func() (domain.AccountEntry, error) {
				return repo.Debit(ctx, id.ID, decimal.RequireFromString("70"), "t4", "wire out")
			},
			wantBalance: "0.00",
		},
		{
			name: "ZeroAmount",
			apply: func() (domain.AccountEntry, error) {
				return repo.Credit(ctx, id.ID, decimal.Zero, "t5", "wire in")
			},
			wantErr:     domain.ErrNonPositiveAmount,
			wantBalance: "0.00",
		},
		{
			name: "UnknownAccount",
			apply: func() (domain.AccountEntry, error) {
				return repo.Credit(ctx, "missing", decimal.NewFromInt(1), "t6", "wire in")
			},
			wantErr:     domain.ErrAccountNotFound,
			wantBalance: "0.00",
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			e, err := tc.apply()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, e)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantBalance, e.BalanceAfter.StringFixed(2))
			}

			acc, err := repo.Get(ctx, id.ID)
			require.NoError(t, err)
			require.Equal(t, tc.wantBalance, acc.Balance.StringFixed(2))
			require.True(t, acc.Balance.Equal(sumEntries(acc)))
		})
	}
}

func TestConcurrentMovements(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(1000))
	id := randomIdentity()

	_, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)

	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.Debit(ctx, id.ID, decimal.RequireFromString("1.50"), "d", "out")
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.Credit(ctx, id.ID, decimal.RequireFromString("0.50"), "c", "in")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	acc, err := repo.Get(ctx, id.ID)
	require.NoError(t, err)
	require.Equal(t, "800.00", acc.Balance.StringFixed(2))
	require.Len(t, acc.Transactions, 2*n+1)
	require.True(t, acc.Balance.Equal(sumEntries(acc)))

	running := decimal.Zero
	for _, e := range acc.Transactions {
		running = running.Add(e.Amount)
		require.True(t, running.Equal(e.BalanceAfter))
	}
}

func TestConcurrentDebitsExceedingBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(100))
	id := randomIdentity()

	_, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 2)
	)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Debit(ctx, id.ID, decimal.NewFromInt(60), "t", "out")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case domain.ErrInsufficientFunds:
			insufficient++
		}
	}

	require.Equal(t, 1, ok)
	require.Equal(t, 1, insufficient)

	acc, err := repo.Get(ctx, id.ID)
	require.NoError(t, err)
	require.Equal(t, "40.00", acc.Balance.StringFixed(2))
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoMem(decimal.NewFromInt(5))

	a := domain.AccountIdentity{ID: "b", Holder: "B", Currency: currencypkg.CAD}
	b := domain.AccountIdentity{ID: "a", Holder: "A", Currency: currencypkg.CAD}

	_, err := repo.GetOrCreate(ctx, a)
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, b)
	require.NoError(t, err)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "a", accounts[0].ID)
	require.Equal(t, "b", accounts[1].ID)

	accounts[0].Transactions[0].Description = "changed"

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "Opening balance", got.Transactions[0].Description)
}
