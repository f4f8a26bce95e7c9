// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists indicates that an account with the given identity is already open.
	ErrAccountExists = errors.New("account already exists")
	// ErrInsufficientFunds indicates that the account balance does not cover the debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNonPositiveAmount indicates that a ledger movement was requested with amount <= 0.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// AccountIdentity is the natural key a ledger account is looked up by.
type AccountIdentity struct {
	ID       string
	Holder   string
	Currency string
}

// DebtorIdentity returns the ledger identity of the transfer's debtor,
// keyed by institution, transit and account number.
func DebtorIdentity(t Transfer) AccountIdentity {
	return AccountIdentity{
		ID:       t.InstitutionNumber + "-" + t.TransitNumber + "-" + t.AccountNumber,
		Holder:   t.DebtorName,
		Currency: t.Currency,
	}
}

// CreditorIdentity returns the ledger identity of the transfer's creditor, keyed by IBAN.
func CreditorIdentity(t Transfer) AccountIdentity {
	return AccountIdentity{
		ID:       "CREDITOR-" + t.CreditorIBAN,
		Holder:   t.CreditorName,
		Currency: t.Currency,
	}
}

// Account holds a simulated bank account and its transaction log.
type Account struct {
	ID           string          `json:"account_id"`
	Holder       string          `json:"account_holder"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []AccountEntry  `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	c := a
	c.Transactions = append([]AccountEntry(nil), a.Transactions...)

	return c
}
