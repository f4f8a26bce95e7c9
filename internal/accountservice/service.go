// Package accountservice manages business logic layer of ledger accounts.
package accountservice

import (
	"context"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	GetOrCreate(ctx context.Context, id domain.AccountIdentity) (domain.Account, error)
	Open(ctx context.Context, id domain.AccountIdentity, balance decimal.Decimal) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Debit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error)
	Credit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// ResolveParties looks up or lazily opens the debtor and creditor accounts of
// the transfer. An existing account held in another currency than the
// transfer's is reported as a ValidationError.
func (s *Service) ResolveParties(ctx context.Context, t domain.Transfer) (debtor, creditor domain.Account, err error) {
	l := zerolog.Ctx(ctx)

	debtor, err = s.resolve(ctx, domain.DebtorIdentity(t), "debtor account currency")
	if err != nil {
		l.Info().Err(err).Msg("debtor account resolution failed")
		return debtor, creditor, err
	}

	creditor, err = s.resolve(ctx, domain.CreditorIdentity(t), "creditor account currency")
	if err != nil {
		l.Info().Err(err).Msg("creditor account resolution failed")
		return debtor, creditor, err
	}

	return debtor, creditor, nil
}

func (s *Service) resolve(ctx context.Context, id domain.AccountIdentity, field string) (domain.Account, error) {
	acc, err := s.repo.GetOrCreate(ctx, id)
	if err != nil {
		return acc, err
	}

	if acc.Currency != id.Currency {
		return acc, &domain.ValidationError{
			Field: field,
			Rule:  "account " + acc.ID + " is held in " + acc.Currency + ", transfer is in " + id.Currency,
		}
	}

	return acc, nil
}

// Open creates an account with the given opening balance.
func (s *Service) Open(ctx context.Context, id domain.AccountIdentity, balance decimal.Decimal) (domain.Account, error) {
	return s.repo.Open(ctx, id, balance)
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// List returns all ledger accounts.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Debit takes amount from the account on behalf of the transfer.
func (s *Service) Debit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error) {
	return s.repo.Debit(ctx, id, amount, transferID, description)
}

// Credit adds amount to the account on behalf of the transfer.
func (s *Service) Credit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error) {
	return s.repo.Credit(ctx, id, amount, transferID, description)
}
