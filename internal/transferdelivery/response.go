package transferdelivery

import (
	"time"

	"github.com/go-petr/lynx-wire/internal/accountdelivery"
	"github.com/go-petr/lynx-wire/internal/domain"
)

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type summaryResponse struct {
	ID           string `json:"id"`
	DebtorName   string `json:"debtor_name"`
	CreditorName string `json:"creditor_name"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func newSummaryResponse(s domain.TransferSummary) summaryResponse {
	return summaryResponse{
		ID:           s.ID,
		DebtorName:   s.DebtorName,
		CreditorName: s.CreditorName,
		Amount:       s.Amount.StringFixed(2),
		Currency:     s.Currency,
		Status:       string(s.Status),
		CreatedAt:    timestamp(s.CreatedAt),
	}
}

type stepResponse struct {
	Step      string `json:"step"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details,omitempty"`
}

type transferResponse struct {
	ID                string `json:"id"`
	DebtorName        string `json:"debtor_name"`
	InstitutionNumber string `json:"institution_number"`
	TransitNumber     string `json:"transit_number"`
	AccountNumber     string `json:"account_number"`
	CreditorName      string `json:"creditor_name"`
	CreditorIBAN      string `json:"creditor_iban"`
	CreditorBIC       string `json:"creditor_bic"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Purpose           string `json:"purpose"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`

	DebtorAccount   *accountdelivery.AccountResponse `json:"debtor_account,omitempty"`
	CreditorAccount *accountdelivery.AccountResponse `json:"creditor_account,omitempty"`

	ProcessingSteps []stepResponse `json:"processing_steps"`

	Pacs008XML *string `json:"pacs_008_xml"`
	Pacs002XML *string `json:"pacs_002_xml,omitempty"`
	Pacs004XML *string `json:"pacs_004_xml,omitempty"`
	Pacs007XML *string `json:"pacs_007_xml,omitempty"`
}

func document(m *domain.Message) *string {
	if m == nil {
		return nil
	}

	xml := m.XML

	return &xml
}

func account(a *domain.Account) *accountdelivery.AccountResponse {
	if a == nil {
		return nil
	}

	res := accountdelivery.NewAccountResponse(*a)

	return &res
}

func newTransferResponse(t domain.TransferDetails) transferResponse {
	steps := make([]stepResponse, 0, len(t.ProcessingSteps))
	for _, s := range t.ProcessingSteps {
		steps = append(steps, stepResponse{
			Step:      s.Step,
			Status:    string(s.Status),
			Timestamp: timestamp(s.Timestamp),
			Details:   s.Details,
		})
	}

	return transferResponse{
		ID:                t.ID,
		DebtorName:        t.DebtorName,
		InstitutionNumber: t.InstitutionNumber,
		TransitNumber:     t.TransitNumber,
		AccountNumber:     t.AccountNumber,
		CreditorName:      t.CreditorName,
		CreditorIBAN:      t.CreditorIBAN,
		CreditorBIC:       t.CreditorBIC,
		Amount:            t.Amount.StringFixed(2),
		Currency:          t.Currency,
		Purpose:           t.Purpose,
		Status:            string(t.Status),
		CreatedAt:         timestamp(t.CreatedAt),
		DebtorAccount:     account(t.DebtorAccount),
		CreditorAccount:   account(t.CreditorAccount),
		ProcessingSteps:   steps,
		Pacs008XML:        document(t.Messages.Pacs008),
		Pacs002XML:        document(t.Messages.Pacs002),
		Pacs004XML:        document(t.Messages.Pacs004),
		Pacs007XML:        document(t.Messages.Pacs007),
	}
}
