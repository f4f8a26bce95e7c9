// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/errorspkg"
	"github.com/go-petr/lynx-wire/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error)
	Get(ctx context.Context, id string) (domain.TransferDetails, error)
	List(ctx context.Context) ([]domain.TransferSummary, error)
	Cancel(ctx context.Context, id, reason string) (domain.Transfer, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type createRequest struct {
	DebtorName        string           `json:"debtor_name" binding:"required"`
	InstitutionNumber string           `json:"institution_number" binding:"required"`
	TransitNumber     string           `json:"transit_number" binding:"required"`
	AccountNumber     string           `json:"account_number" binding:"required"`
	CreditorName      string           `json:"creditor_name" binding:"required"`
	CreditorIBAN      string           `json:"creditor_iban" binding:"required"`
	CreditorBIC       string           `json:"creditor_bic" binding:"required"`
	Amount            *decimal.Decimal `json:"amount" binding:"required"`
	Currency          string           `json:"currency" binding:"required,len=3"`
	Purpose           string           `json:"purpose"`
}

type createResponse struct {
	Message    string `json:"message"`
	TransferID string `json:"transfer_id"`
}

func bindError(err error) web.JSONError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return web.JSONError{Error: field.Field() + web.GetErrorMsg(field)}
	}

	if errors.Is(err, io.EOF) {
		return web.JSONError{Error: "request body is empty"}
	}

	return web.JSONError{Error: "malformed request body: " + err.Error()}
}

// Create handles http request to initiate a wire transfer. Processing
// continues in the background after the response is sent.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, bindError(err))

		return
	}

	arg := domain.CreateTransferParams{
		DebtorName:        req.DebtorName,
		InstitutionNumber: req.InstitutionNumber,
		TransitNumber:     req.TransitNumber,
		AccountNumber:     req.AccountNumber,
		CreditorName:      req.CreditorName,
		CreditorIBAN:      req.CreditorIBAN,
		CreditorBIC:       req.CreditorBIC,
		Amount:            *req.Amount,
		Currency:          req.Currency,
		Purpose:           req.Purpose,
	}

	t, err := h.service.Create(ctx, arg)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusCreated, createResponse{
		Message:    "Transfer initiated successfully",
		TransferID: t.ID,
	})
}

type listResponse struct {
	Transfers []summaryResponse `json:"transfers"`
	Count     int               `json:"count"`
}

// List handles http request to list transfers, most recent first.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	transfers, err := h.service.List(ctx)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := listResponse{
		Transfers: make([]summaryResponse, 0, len(transfers)),
		Count:     len(transfers),
	}

	for _, t := range transfers {
		res.Transfers = append(res.Transfers, newSummaryResponse(t))
	}

	gctx.JSON(http.StatusOK, res)
}

type uriRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Get handles http request to get the full snapshot of a transfer.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, bindError(err))

		return
	}

	t, err := h.service.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, newTransferResponse(t))
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=140"`
}

type cancelResponse struct {
	Message    string `json:"message"`
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

// Cancel handles http request to cancel a transfer that has not claimed
// settlement yet. The body is optional.
func (h *Handler) Cancel(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, bindError(err))

		return
	}

	var req cancelRequest
	if gctx.Request.ContentLength != 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, bindError(err))

			return
		}
	}

	t, err := h.service.Cancel(ctx, uri.ID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransferNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case errors.Is(err, domain.ErrNotCancellable):
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusAccepted, cancelResponse{
		Message:    "Cancellation requested",
		TransferID: t.ID,
		Status:     string(t.Status),
	})
}
