// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/errorspkg"
	"github.com/go-petr/lynx-wire/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	List(ctx context.Context) ([]domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

// EntryResponse is the JSON form of an account entry.
type EntryResponse struct {
	Type         domain.EntryType `json:"type"`
	Amount       string           `json:"amount"`
	BalanceAfter string           `json:"balance_after"`
	TransferID   string           `json:"transfer_id,omitempty"`
	Description  string           `json:"description"`
	Timestamp    string           `json:"timestamp"`
}

// AccountResponse is the JSON form of a ledger account.
type AccountResponse struct {
	ID           string          `json:"account_id"`
	Holder       string          `json:"account_holder"`
	Balance      string          `json:"balance"`
	Currency     string          `json:"currency"`
	Transactions []EntryResponse `json:"transactions"`
}

// NewAccountResponse converts the account, formatting money with two decimals
// and timestamps as RFC 3339 in UTC.
func NewAccountResponse(a domain.Account) AccountResponse {
	entries := make([]EntryResponse, 0, len(a.Transactions))
	for _, e := range a.Transactions {
		entries = append(entries, EntryResponse{
			Type:         e.Type,
			Amount:       e.Amount.StringFixed(2),
			BalanceAfter: e.BalanceAfter.StringFixed(2),
			TransferID:   e.TransferID,
			Description:  e.Description,
			Timestamp:    e.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}

	return AccountResponse{
		ID:           a.ID,
		Holder:       a.Holder,
		Balance:      a.Balance.StringFixed(2),
		Currency:     a.Currency,
		Transactions: entries,
	}
}

type listResponse struct {
	Accounts []AccountResponse `json:"bank_accounts"`
	Count    int               `json:"count"`
}

// List handles http request to list the ledger accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	accounts, err := h.service.List(ctx)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := listResponse{
		Accounts: make([]AccountResponse, 0, len(accounts)),
		Count:    len(accounts),
	}

	for _, a := range accounts {
		res.Accounts = append(res.Accounts, NewAccountResponse(a))
	}

	gctx.JSON(http.StatusOK, res)
}
