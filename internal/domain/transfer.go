package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrTransferExists indicates that a transfer with the same id is already registered.
	ErrTransferExists = errors.New("transfer already exists")
	// ErrNotCancellable indicates that the transfer has already claimed settlement or is terminal.
	ErrNotCancellable = errors.New("transfer is not in a cancellable state")
	// ErrTerminalTransfer indicates an attempt to mutate a COMPLETED or FAILED transfer.
	ErrTerminalTransfer = errors.New("transfer is in a terminal state")
	// ErrInvalidTransition indicates a status change outside of the transfer state graph.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the lifecycle state of a transfer.
type Status string

// Transfer statuses.
const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusProcessing Status = "PROCESSING"
	StatusSettling   Status = "SETTLING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var nextStatus = map[Status][]Status{
	StatusPending:    {StatusValidating, StatusFailed},
	StatusValidating: {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusSettling, StatusFailed},
	StatusSettling:   {StatusCompleted, StatusFailed},
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether to is directly reachable from s.
func (s Status) CanTransitionTo(to Status) bool {
	for _, n := range nextStatus[s] {
		if n == to {
			return true
		}
	}

	return false
}

// ProcessingStep is one entry of the transfer audit trail.
type ProcessingStep struct {
	Step      string    `json:"step"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Messages holds the ISO 20022 documents issued for a transfer.
type Messages struct {
	Pacs008 *Message
	Pacs002 *Message
	Pacs004 *Message
	Pacs007 *Message
}

// Transfer holds a wire transfer and its processing state.
type Transfer struct {
	ID string

	DebtorName        string
	InstitutionNumber string
	TransitNumber     string
	AccountNumber     string

	CreditorName string
	CreditorIBAN string
	CreditorBIC  string

	Amount   decimal.Decimal
	Currency string
	Purpose  string

	Status          Status
	CreatedAt       time.Time
	ProcessingSteps []ProcessingStep
	Messages        Messages

	DebtorAccountID   string
	CreditorAccountID string

	// CancelRequested is set by a cancellation request and honoured by the
	// transfer task at its next checkpoint before settlement.
	CancelRequested   bool
	CancelReason      string
	SettlementClaimed bool
	UpdatedAt         time.Time
}

// Clone returns a deep copy of the transfer. Messages are immutable and shared.
func (t Transfer) Clone() Transfer {
	c := t
	c.ProcessingSteps = append([]ProcessingStep(nil), t.ProcessingSteps...)

	return c
}

// Advance moves the transfer to status and appends the matching step.
// It refuses transitions outside of the state graph and keeps step timestamps
// non-decreasing.
func (t *Transfer) Advance(to Status, step, details string, at time.Time) error {
	if t.Status.IsTerminal() {
		return ErrTerminalTransfer
	}

	if to != t.Status && !t.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}

	t.AddStep(step, to, details, at)
	t.Status = to

	return nil
}

// AddStep appends a step to the audit trail.
func (t *Transfer) AddStep(step string, status Status, details string, at time.Time) {
	if n := len(t.ProcessingSteps); n > 0 && at.Before(t.ProcessingSteps[n-1].Timestamp) {
		at = t.ProcessingSteps[n-1].Timestamp
	}

	t.ProcessingSteps = append(t.ProcessingSteps, ProcessingStep{
		Step:      step,
		Status:    status,
		Timestamp: at,
		Details:   details,
	})
	t.UpdatedAt = at
}

// CreateTransferParams is the input data to create a transfer.
type CreateTransferParams struct {
	DebtorName        string
	InstitutionNumber string
	TransitNumber     string
	AccountNumber     string
	CreditorName      string
	CreditorIBAN      string
	CreditorBIC       string
	Amount            decimal.Decimal
	Currency          string
	Purpose           string
}

// TransferSummary is the list view of a transfer.
type TransferSummary struct {
	ID           string
	DebtorName   string
	CreditorName string
	Amount       decimal.Decimal
	Currency     string
	Status       Status
	CreatedAt    time.Time
}

// Summary returns the list view of the transfer.
func (t Transfer) Summary() TransferSummary {
	return TransferSummary{
		ID:           t.ID,
		DebtorName:   t.DebtorName,
		CreditorName: t.CreditorName,
		Amount:       t.Amount,
		Currency:     t.Currency,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt,
	}
}

// Route is the clearing rail a transfer travels on.
type Route string

// Clearing rails.
const (
	RouteLynx  Route = "LYNX"
	RouteSWIFT Route = "SWIFT"
)

// Route selects Lynx for CAD transfers to a Canadian creditor agent and
// SWIFT for everything else.
func (t Transfer) Route() Route {
	if len(t.CreditorBIC) >= 6 && strings.EqualFold(t.CreditorBIC[4:6], "CA") && t.Currency == "CAD" {
		return RouteLynx
	}

	return RouteSWIFT
}

// IsDomestic reports whether the transfer clears on the domestic rail.
func (t Transfer) IsDomestic() bool {
	return t.Route() == RouteLynx
}

// TransferDetails is a transfer snapshot together with the current state of
// the ledger accounts it references.
type TransferDetails struct {
	Transfer
	DebtorAccount   *Account
	CreditorAccount *Account
}
