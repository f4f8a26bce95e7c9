package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tells how an entry changed the balance.
type EntryType string

// Entry types.
const (
	EntryOpening EntryType = "OPENING"
	EntryDebit   EntryType = "DEBIT"
	EntryCredit  EntryType = "CREDIT"
)

// AccountEntry holds one balance change of an account.
type AccountEntry struct {
	Type         EntryType       `json:"type"`
	Amount       decimal.Decimal `json:"amount"` // signed delta
	BalanceAfter decimal.Decimal `json:"balance_after"`
	TransferID   string          `json:"transfer_id,omitempty"`
	Description  string          `json:"description"`
	Timestamp    time.Time       `json:"timestamp"`
}
