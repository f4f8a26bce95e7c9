package accountservice

import (
	"context"
	"errors"
	"testing"

	"github.com/go-petr/lynx-wire/internal/accountrepo"
	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/currencypkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testTransfer(currency string) domain.Transfer {
	return domain.Transfer{
		ID:                "6b0d7d4e-0000-4000-8000-000000000001",
		DebtorName:        "John Doe",
		InstitutionNumber: "003",
		TransitNumber:     "12345",
		AccountNumber:     "1234567890",
		CreditorName:      "Jane Smith",
		CreditorIBAN:      "DE89370400440532013000",
		CreditorBIC:       "COBADEFFXXX",
		Amount:            decimal.RequireFromString("1000.00"),
		Currency:          currency,
	}
}

func TestResolveParties(t *testing.T) {
	ctx := context.Background()
	s := New(accountrepo.NewRepoMem(decimal.RequireFromString("10000")))

	debtor, creditor, err := s.ResolveParties(ctx, testTransfer(currencypkg.CAD))
	require.NoError(t, err)
	require.Equal(t, "003-12345-1234567890", debtor.ID)
	require.Equal(t, "John Doe", debtor.Holder)
	require.Equal(t, "CREDITOR-DE89370400440532013000", creditor.ID)
	require.Equal(t, "Jane Smith", creditor.Holder)

	accounts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Same parties resolve to the same accounts.
	debtor2, creditor2, err := s.ResolveParties(ctx, testTransfer(currencypkg.CAD))
	require.NoError(t, err)
	require.Equal(t, debtor.ID, debtor2.ID)
	require.Equal(t, creditor.ID, creditor2.ID)

	accounts, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
}

func TestResolvePartiesCurrencyMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(accountrepo.NewRepoMem(decimal.RequireFromString("10000")))

	_, _, err := s.ResolveParties(ctx, testTransfer(currencypkg.CAD))
	require.NoError(t, err)

	_, _, err = s.ResolveParties(ctx, testTransfer(currencypkg.EUR))

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "debtor account currency", ve.Field)
}

func TestGetUnknown(t *testing.T) {
	s := New(accountrepo.NewRepoMem(decimal.Zero))

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
